// Command ingest runs a single ingestion pass for one workflow and prints
// the run summary as JSON. It is the scheduled-job entry point; the server
// binary exposes the same operation over HTTP.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/config"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/heretohelp"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/ingest"
	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/sheets"
)

func main() {
	var (
		workflowName = flag.String("workflow", "", "workflow to run (self-isolation, contact-tracing, cev, spl)")
		configPath   = flag.String("config", "config/config.yaml", "path to config file")
		inbound      = flag.String("inbound", "", "override the inbound folder id")
		outbound     = flag.String("outbound", "", "override the outbound folder id")
		timeout      = flag.Duration("timeout", 30*time.Minute, "overall run timeout")
	)
	flag.Parse()

	wf, ok := ingest.Workflows()[*workflowName]
	if !ok {
		log.Fatalf("Unknown workflow %q; expected one of %v", *workflowName, config.WorkflowNames)
	}

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	wfCfg := cfg.Workflows[*workflowName]
	if *inbound != "" {
		wfCfg.InboundFolderID = *inbound
	}
	if *outbound != "" {
		wfCfg.OutboundFolderID = *outbound
	}
	if wfCfg.InboundFolderID == "" || wfCfg.OutboundFolderID == "" {
		log.Fatalf("Workflow %q needs inbound and outbound folder ids (config or flags)", *workflowName)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var store sheets.FileStore
	if cfg.Sheets.Type == "s3" {
		store, err = sheets.NewS3Store(ctx, sheets.S3Config{
			Bucket:    cfg.Sheets.S3Bucket,
			Region:    cfg.Sheets.S3Region,
			AccessKey: cfg.Sheets.AccessKey,
			SecretKey: cfg.Sheets.SecretKey,
		})
		if err != nil {
			log.Fatalf("Failed to initialize sheet store: %v", err)
		}
	} else {
		store = sheets.NewLocalStore()
	}

	gateway := heretohelp.NewClient(heretohelp.Config{
		BaseURL:        cfg.HereToHelp.BaseURL,
		APIKey:         cfg.HereToHelp.APIKey,
		TimeoutSeconds: cfg.HereToHelp.TimeoutSeconds,
	})

	engine := ingest.NewEngine(gateway, wf)
	summary, err := sheets.NewProcessor(store).Process(ctx, wfCfg.InboundFolderID, wfCfg.OutboundFolderID, engine)
	if err != nil {
		log.Fatalf("Ingestion run failed: %v", err)
	}

	out, err := json.MarshalIndent(map[string]any{"body": summary}, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode summary: %v", err)
	}
	fmt.Println(string(out))

	for _, sheet := range summary.Sheets {
		if sheet.Error != "" {
			os.Exit(1)
		}
		if sheet.Result != nil && len(sheet.Result.Exceptions) > 0 {
			os.Exit(1)
		}
	}
}
