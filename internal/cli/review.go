package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/factgate/internal/cache"
	"github.com/ppiankov/factgate/internal/ensemble"
	"github.com/ppiankov/factgate/internal/logging"
	"github.com/ppiankov/factgate/internal/model"
	"github.com/ppiankov/factgate/internal/pipeline"
	"github.com/ppiankov/factgate/internal/policy"
	"github.com/ppiankov/factgate/internal/provider"
)

var (
	draftPath      string
	evidencePath   string
	outJSON        string
	providerNames  []string
	overallTimeout time.Duration
	noCache        bool
	linkCheck      bool
	correctionPath string
)

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review a draft and emit a publish/hold/reject decision",
	Long: `Review runs the full publish gate over a draft:
- Extract and classify atomic claims, cross-checked against citations
- Validate citation coverage, recency, and paraphrase risk
- Dispatch an adversarial review to every available judgment provider
- Merge verdicts into a confidence-scored consensus
- Emit an auditable publish/hold/reject decision with ordered reasons

Example:
  factgate review --draft draft.json --evidence evidence.json
  factgate review --draft draft.json --evidence evidence.json --providers openai,anthropic --json report.json`,
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringVar(&draftPath, "draft", "", "path to the draft JSON file (required)")
	reviewCmd.Flags().StringVar(&evidencePath, "evidence", "", "path to the evidence JSON file (required)")
	reviewCmd.Flags().StringVar(&outJSON, "json", "", "write the report JSON to this path (default: stdout)")
	reviewCmd.Flags().StringSliceVar(&providerNames, "providers", []string{"openai"}, "judgment providers (openai, anthropic, google)")
	reviewCmd.Flags().DurationVar(&overallTimeout, "timeout", 2*time.Minute, "overall review timeout")
	reviewCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable verdict memoization")
	reviewCmd.Flags().BoolVar(&linkCheck, "link-check", false, "probe evidence URLs for dead links")
	reviewCmd.Flags().StringVar(&correctionPath, "correction-log", "", "append correction entries for fast-tracked content to this JSONL file")

	_ = reviewCmd.MarkFlagRequired("draft")
	_ = reviewCmd.MarkFlagRequired("evidence")
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache
	cfg.Citation.LinkCheck.Enabled = cfg.Citation.LinkCheck.Enabled || linkCheck
	if verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(cfg.Log.Level)

	draft, evidence, err := loadInputs(draftPath, evidencePath)
	if err != nil {
		return err
	}

	gateways, err := buildGateways(cfg)
	if err != nil {
		return err
	}
	if len(gateways) == 0 {
		log.Warn("no judgment providers available; consensus will be skipped")
	}

	var verdictCache cache.VerdictCache
	if cfg.Cache.Enabled {
		verdictCache = cache.NewMemoryCache(cfg.Cache)
	}

	orchestrator := ensemble.NewOrchestrator(gateways, cfg.Breaker, cfg.RateLimit, verdictCache, cfg.Ensemble, log)

	var corrections policy.CorrectionLog
	if correctionPath != "" {
		corrections = &fileCorrectionLog{path: correctionPath}
	}

	reviewer := pipeline.NewReviewer(cfg, orchestrator, corrections, log)

	ctx, cancel := context.WithTimeout(context.Background(), overallTimeout)
	defer cancel()

	report, err := reviewer.Review(ctx, draft, evidence)
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}

	if err := writeReport(report, outJSON); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "decision: %s\n", report.Decision.Decision)
	for _, reason := range report.Decision.Reasons {
		fmt.Fprintf(os.Stderr, "  - %s\n", reason)
	}

	return nil
}

// loadConfig layers the config file and environment over the defaults.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if viper.ConfigFileUsed() != "" || len(viper.AllKeys()) > 0 {
		decode := func(dc *mapstructure.DecoderConfig) {
			dc.TagName = "yaml"
			dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			)
		}
		if err := viper.Unmarshal(cfg, decode); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	return cfg, nil
}

// loadInputs reads the draft and evidence JSON files.
func loadInputs(draftPath, evidencePath string) (model.ArticleDraft, []model.EvidenceItem, error) {
	var draft model.ArticleDraft
	var evidence []model.EvidenceItem

	draftData, err := os.ReadFile(draftPath)
	if err != nil {
		return draft, nil, fmt.Errorf("read draft: %w", err)
	}
	if err := json.Unmarshal(draftData, &draft); err != nil {
		return draft, nil, fmt.Errorf("parse draft: %w", err)
	}

	evidenceData, err := os.ReadFile(evidencePath)
	if err != nil {
		return draft, nil, fmt.Errorf("read evidence: %w", err)
	}
	if err := json.Unmarshal(evidenceData, &evidence); err != nil {
		return draft, nil, fmt.Errorf("parse evidence: %w", err)
	}

	return draft, evidence, nil
}

// buildGateways constructs a gateway per requested provider, pulling API
// keys from the environment. A provider without credentials is skipped
// with a notice rather than failing the whole review.
func buildGateways(cfg *model.Config) ([]provider.Gateway, error) {
	configured := make(map[string]model.ProviderConfig)
	for _, pc := range cfg.Providers {
		configured[pc.Name] = pc
	}

	var gateways []provider.Gateway
	for _, name := range providerNames {
		name = strings.ToLower(strings.TrimSpace(name))

		pc, ok := configured[name]
		if !ok {
			pc = model.ProviderConfig{Name: name, TimeoutSeconds: 30}
		}
		if pc.APIKey == "" {
			pc.APIKey = apiKeyFromEnv(name)
		}
		if pc.APIKey == "" {
			fmt.Fprintf(os.Stderr, "skipping %s: no API key in environment\n", name)
			continue
		}

		gw, err := provider.New(pc, cfg.Ensemble.MaxRetries)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		gateways = append(gateways, gw)
	}

	return gateways, nil
}

func apiKeyFromEnv(name string) string {
	switch name {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "google", "gemini":
		return os.Getenv("GOOGLE_API_KEY")
	}
	return ""
}

func writeReport(report *model.ReviewReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "wrote report: %s\n", path)
	}
	return nil
}

// fileCorrectionLog appends correction entries to a JSONL file. It only
// implements the append contract; the log's real store lives downstream.
type fileCorrectionLog struct {
	path string
}

func (f *fileCorrectionLog) Append(ctx context.Context, entry model.CorrectionEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open correction log: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}
