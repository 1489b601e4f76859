// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Message service status command.
package cli

import (
	"context"
	"fmt"
	"time"
)

// statusProbeTimeout bounds the health and conversation probes.
const statusProbeTimeout = 5 * time.Second

// HandleStatus handles the status command. Returns the process exit code.
func HandleStatus(args Args) int {
	cfg := loadConfig(args)
	client := newClient(cfg)

	data := StatusData{
		Service: StatusServiceInfo{
			BaseURL: cfg.API.BaseURL,
			AuthSet: cfg.API.AuthToken != "",
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusProbeTimeout)
	defer cancel()

	start := time.Now()
	health, err := client.CheckHealth(ctx)
	if err != nil {
		data.Service.Reachable = false
		data.Service.Error = err.Error()
	} else {
		data.Service.Reachable = health.Status == "ok"
		data.Service.LatencyMs = time.Since(start).Milliseconds()
	}

	if data.Service.Reachable {
		if metas, err := client.Conversations(ctx); err == nil {
			data.Conversations = len(metas)
			for _, meta := range metas {
				if meta.IsActive {
					data.ActiveTitle = meta.Title
					break
				}
			}
		}
	}

	if args.JSON {
		resp := NewJSONResponse("status", data)
		resp.Print()
		if !data.Service.Reachable {
			return ExitNetworkError
		}
		return ExitSuccess
	}

	fmt.Println(TitleStyle.Render("cardwise status"))

	fmt.Println(SectionStyle.Render("Message Service"))
	fmt.Printf("%s %s\n", RenderLabel("URL:"), ValueStyle.Render(data.Service.BaseURL))
	if data.Service.Reachable {
		fmt.Printf("%s %s %s\n", RenderLabel("Connection:"), RenderStatus("ok"),
			DimStyle.Render(fmt.Sprintf("(%dms)", data.Service.LatencyMs)))
	} else {
		fmt.Printf("%s %s %s\n", RenderLabel("Connection:"), RenderStatus("fail"),
			DimStyle.Render(data.Service.Error))
		fmt.Println()
		fmt.Println(DimStyle.Render("Start the development service with: cardwise serve"))
		return ExitNetworkError
	}
	if data.Service.AuthSet {
		fmt.Printf("%s %s\n", RenderLabel("Auth token:"), SuccessStyle.Render("configured"))
	} else {
		fmt.Printf("%s %s\n", RenderLabel("Auth token:"), DimStyle.Render("not set"))
	}

	fmt.Println(SectionStyle.Render("Conversations"))
	fmt.Printf("%s %s\n", RenderLabel("Total:"), ValueStyle.Render(fmt.Sprintf("%d", data.Conversations)))
	if data.ActiveTitle != "" {
		fmt.Printf("%s %s\n", RenderLabel("Active:"), ValueStyle.Render(data.ActiveTitle))
	}

	return ExitSuccess
}
