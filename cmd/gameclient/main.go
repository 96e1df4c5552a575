package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/danmuck/skirmish/internal/client"
	"github.com/danmuck/skirmish/internal/config"
	"github.com/danmuck/skirmish/internal/logging"
	"github.com/danmuck/skirmish/internal/protocol"
	"github.com/danmuck/skirmish/internal/protocol/packet"
	"github.com/rs/zerolog/log"
)

// errQuit signals the operator asked to leave.
var errQuit = errors.New("quit")

func main() {
	configPath := flag.String("config", "cmd/gameclient/config.toml", "client config path")
	name := flag.String("name", "", "player name override")
	url := flag.String("url", "", "server url override")
	flag.Parse()

	logging.ConfigureRuntime("gameclient")
	settings, err := config.LoadClientConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load client config")
	}
	if *name != "" {
		settings.Client.Name = *name
	}
	if *url != "" {
		settings.Client.URL = *url
	}
	if err := config.ValidateClientConfig(settings.Client); err != nil {
		log.Fatal().Err(err).Msg("invalid client config")
	}
	logging.Setup("gameclient", settings.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(settings.Client)
	go printPackets(ctx, c)
	go func() {
		if err := readInputs(ctx, os.Stdin, c); err != nil && !errors.Is(err, errQuit) {
			log.Error().Err(err).Msg("input stopped")
		}
		stop()
	}()

	if err := c.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("gameclient stopped")
	}
	log.Info().Msg("gameclient stopped")
}

func printPackets(ctx context.Context, c *client.Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-c.Packets():
			switch msg := p.(type) {
			case packet.Joined:
				log.Info().Uint16("player", msg.PlayerID).Uint8("tick_rate", msg.TickRate).Msg("joined")
			default:
				log.Info().Str("kind", p.Kind().String()).Msg("packet")
			}
		}
	}
}

// readInputs sends one Input per line until EOF, quit, or ctx is done.
func readInputs(ctx context.Context, r io.Reader, c *client.Client) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		input, err := parseInput(scanner.Text())
		if errors.Is(err, errQuit) {
			return err
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "gameclient: %v\n", err)
			continue
		}
		if err := c.SendPacket(input); err != nil {
			log.Warn().Err(err).Msg("send input")
		}
	}
	return scanner.Err()
}

// parseInput reads one line of held controls, e.g. "w d attack aim=1.57".
// An empty line releases everything.
func parseInput(line string) (packet.Input, error) {
	var in packet.Input
	for _, field := range strings.Fields(strings.ToLower(line)) {
		switch field {
		case "w", "up":
			in.Up = true
		case "s", "down":
			in.Down = true
		case "a", "left":
			in.Left = true
		case "d", "right":
			in.Right = true
		case "attack", "space":
			in.Attack = true
		case "quit", "exit":
			return packet.Input{}, errQuit
		default:
			raw, ok := strings.CutPrefix(field, "aim=")
			if !ok {
				return packet.Input{}, fmt.Errorf("unknown control %q", field)
			}
			aim, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return packet.Input{}, fmt.Errorf("aim: %w", err)
			}
			if aim < protocol.AimMin || aim > protocol.AimMax {
				return packet.Input{}, fmt.Errorf("aim %v outside [%.4f, %.4f]", aim, protocol.AimMin, protocol.AimMax)
			}
			in.Aim = aim
		}
	}
	return in, nil
}
