package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MndV09/iot-carbot/internal/app"
	"github.com/MndV09/iot-carbot/internal/client"
	"github.com/MndV09/iot-carbot/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	wsURL := flag.String("url", "", "WebSocket URL of the carbot backend (overrides config)")
	deviceID := flag.Int("device", 0, "Device id to monitor (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config %s: %v", *configPath, err)
		}
		cfg = loaded
	}
	if *wsURL != "" {
		cfg.Server.URL = *wsURL
	}
	if *deviceID != 0 {
		cfg.Server.DeviceID = *deviceID
	}

	// The TUI owns the terminal; logs go to a file when CARBOT_DEBUG is
	// set and are discarded otherwise.
	if os.Getenv("CARBOT_DEBUG") != "" {
		f, err := tea.LogToFile("carbot-debug.log", "carbot")
		if err != nil {
			log.Fatalf("open debug log: %v", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	httpBase := deriveHTTPBase(cfg.Server.URL)

	sup := client.NewSupervisor(cfg.Server.URL, cfg.Monitor.ReconnectBaseDelay, cfg.Monitor.ReconnectMaxDelay)
	sup.Subscribe(func(state client.State, err error) {
		if err != nil {
			log.Printf("ws %s: %v", state, err)
			return
		}
		log.Printf("ws %s", state)
	})
	httpClient := client.NewHTTPClient(httpBase)

	m := app.New(sup, httpClient, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// deriveHTTPBase converts ws://host:port/ws → http://host:port
func deriveHTTPBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "http://127.0.0.1:5500"
	}
	scheme := "http"
	if strings.HasPrefix(u.Scheme, "wss") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
