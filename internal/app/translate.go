package app

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/docrelay/docrelay/internal/cli"
	"github.com/docrelay/docrelay/internal/language"
	"github.com/docrelay/docrelay/internal/translator"
)

// runTranslate is an operator tool: translate one title and print it, no
// delivery involved.
func runTranslate(args []string) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	targetLang := fs.String("to", "", "Target language code (defaults to TARGET_LANGUAGE)")
	timeout := fs.Duration("timeout", 60*time.Second, "Translation timeout")

	cfg, logger, code := bootstrap(fs, envLoader, args)
	if code >= 0 {
		return code
	}

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "Usage: docrelay translate [flags] <title text>")
		return 2
	}

	if !cfg.HasTranslator() {
		fmt.Fprintln(os.Stderr, "TRANSLATION_API_KEY is not configured")
		return 1
	}

	lang := language.NormalizeCode(*targetLang)
	if lang == "" {
		lang = cfg.TargetLanguage
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	provider := translator.NewOpenAIProvider(cfg.TranslationAPIKey, cfg.TranslationModel)
	adapter := translator.NewAdapter(provider, logger)

	translated := adapter.TranslateTitle(ctx, text, lang)
	fmt.Println(translated)

	if translated == text {
		logger.Warn().Msg("output equals input, translation may have degraded to the original text")
	}
	return 0
}
