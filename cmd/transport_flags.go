// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	ivtransport "github.com/vedirect-go/vedirect/internal/transport"
	"github.com/vedirect-go/vedirect/pkg/vedirect"
	"golang.org/x/term"
)

// getPassword retrieves the websocket bridge password from the
// environment or prompts for it, the way heliostat's GetPassword does.
func getPassword() (string, error) {
	if pw := os.Getenv("VEDIRECT_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}
	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// openTransport opens either a serial port or a websocket bridge
// depending on which persistent flags were set, mirroring heliostat's
// OpenConnection dispatch.
func openTransport(ctx context.Context) (vedirect.Transport, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = getPassword()
			if err != nil {
				return nil, "", err
			}
		}
		transport, err := ivtransport.OpenWebSocket(ctx, ivtransport.WebSocketDialOptions{
			URL:           wsURL,
			Username:      wsUsername,
			Password:      password,
			SkipSSLVerify: wsNoSSLVerify,
		})
		if err != nil {
			return nil, "", err
		}
		return transport, fmt.Sprintf("websocket: %s", wsURL), nil
	}

	if portName == "" {
		return nil, "", fmt.Errorf("either --port or --url must be specified")
	}

	conf := vedirect.DefaultSerialConfig(portName)
	conf.Baud = vedirect.BaudRate(baudRate)
	if err := conf.Validate(); err != nil {
		return nil, "", err
	}

	transport, err := (ivtransport.SerialOpener{}).Open(ctx, conf)
	if err != nil {
		return nil, "", err
	}
	return transport, fmt.Sprintf("serial: %s @ %d baud", portName, baudRate), nil
}

func serialConfig() vedirect.SerialConfig {
	conf := vedirect.DefaultSerialConfig(portName)
	conf.Baud = vedirect.BaudRate(baudRate)
	return conf
}
