package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type validateReply struct {
	OK     bool `json:"ok"`
	Report struct {
		Total   int `json:"total"`
		Invalid int `json:"invalid"`
	} `json:"report"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	count := flag.Int("count", 200, "nodes to generate")
	flag.Parse()

	client := &http.Client{Timeout: 30 * time.Second}
	fmt.Println("Starting smoke test...")

	fmt.Println("1. Health check...")
	if _, err := send(client, http.MethodGet, *baseURL+"/healthz", nil); err != nil {
		fail("health", err)
	}
	fmt.Println("PASSED: health")

	fmt.Println("2. Generating graph...")
	body, err := send(client, http.MethodPost, *baseURL+"/generate", map[string]any{"seed": 1, "count": *count})
	if err != nil {
		fail("generate", err)
	}
	var generated struct {
		Graph struct {
			Nodes json.RawMessage `json:"nodes"`
			Edges json.RawMessage `json:"edges"`
		} `json:"graph"`
	}
	if err := json.Unmarshal(body, &generated); err != nil {
		fail("generate", err)
	}
	fmt.Println("PASSED: generate")

	fmt.Println("3. Validating generated graph...")
	body, err = send(client, http.MethodPost, *baseURL+"/validate", map[string]any{
		"nodes": generated.Graph.Nodes,
		"edges": generated.Graph.Edges,
	})
	if err != nil {
		fail("validate", err)
	}
	var reply validateReply
	if err := json.Unmarshal(body, &reply); err != nil {
		fail("validate", err)
	}
	if !reply.OK {
		fail("validate", fmt.Errorf("%d of %d edges invalid", reply.Report.Invalid, reply.Report.Total))
	}
	fmt.Printf("PASSED: validate (%d edges)\n", reply.Report.Total)
}

func fail(step string, err error) {
	fmt.Printf("FAILED: %s: %v\n", step, err)
	os.Exit(1)
}

func send(client *http.Client, method, url string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
	}
	return respBody, nil
}
