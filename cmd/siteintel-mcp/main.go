// Command siteintel-mcp exposes the SiteIntel HTTP API as MCP tools
// over stdio, so LLM agents can trigger analyses and fetch past results.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// analyzeResponse mirrors the SiteIntel API response envelope.
type analyzeResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("SITEINTEL_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("SITEINTEL_API_KEY")

	s := server.NewMCPServer(
		"siteintel",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	analyzeSiteTool := mcp.NewTool("analyze_site",
		mcp.WithDescription("Run a full site analysis: technology fingerprint, SEO audit, advertising/tracking detection, and an AI narrative. Returns the complete analysis record as JSON."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the site to analyze"),
		),
	)
	s.AddTool(analyzeSiteTool, handleAnalyzeSite(apiURL, apiKey))

	getAnalysisTool := mcp.NewTool("get_analysis",
		mcp.WithDescription("Fetch a previously completed site analysis by its identifier."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The analysis identifier returned by analyze_site"),
		),
	)
	s.AddTool(getAnalysisTool, handleGetAnalysis(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleAnalyzeSite(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		body, err := json.Marshal(map[string]string{"url": url})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/v1/analyze", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if apiKey != "" {
			httpReq.Header.Set("X-API-Key", apiKey)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		return toToolResult(resp.Body)
	}
}

func handleGetAnalysis(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/api/v1/analysis/"+id, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		if apiKey != "" {
			httpReq.Header.Set("X-API-Key", apiKey)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		return toToolResult(resp.Body)
	}
}

// toToolResult parses the API envelope and renders the result record as
// indented JSON, or the API error as a tool error.
func toToolResult(body io.Reader) (*mcp.CallToolResult, error) {
	respBody, err := io.ReadAll(body)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
	}

	var envelope analyzeResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
	}

	if !envelope.Success {
		errMsg := "analysis failed"
		if envelope.Error != nil {
			errMsg = fmt.Sprintf("[%s] %s", envelope.Error.Code, envelope.Error.Message)
		}
		return mcp.NewToolResultError(errMsg), nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, envelope.Result, "", "  "); err != nil {
		pretty.Write(envelope.Result)
	}
	return mcp.NewToolResultText(pretty.String()), nil
}
