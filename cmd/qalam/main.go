package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mahesh-hegde/qalam/app/common"
	"github.com/mahesh-hegde/qalam/app/dictionary"
	"github.com/mahesh-hegde/qalam/app/docstore"
	"github.com/mahesh-hegde/qalam/app/editor"
	"github.com/mahesh-hegde/qalam/app/server"
	"github.com/spf13/pflag"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	var err error
	switch command {
	case "translit":
		err = runTranslit(os.Args[2:])
	case "digest":
		err = runDigest(os.Args[2:])
	case "suggest":
		err = runSuggest(os.Args[2:])
	case "words":
		err = runWords(os.Args[2:])
	case "realign":
		err = runRealign(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		slog.Error("command failed", "command", command, "err", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: qalam <command> [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  translit      Transliterate arguments or stdin to Arabic script")
	fmt.Fprintln(os.Stderr, "  digest        Learn the words of text files")
	fmt.Fprintln(os.Stderr, "  suggest       Complete a word prefix from the dictionary")
	fmt.Fprintln(os.Stderr, "  words         List saved words matching a regular expression")
	fmt.Fprintln(os.Stderr, "  realign       Merge diacritic variants and drop short words in the store")
	fmt.Fprintln(os.Stderr, "  serve         Start the editor bridge")
}

func dataDirFlag(flags *pflag.FlagSet) *string {
	return flags.StringP("data-dir", "d", ".", "data directory holding config.json and the stores")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runTranslit(args []string) error {
	flags := pflag.NewFlagSet("translit", pflag.ExitOnError)
	dataDir := dataDirFlag(flags)
	noHarakat := flags.Bool("no-harakat", false, "omit short vowel marks")
	flags.Parse(args)

	conf, _, err := loadConfig(*dataDir)
	if err != nil {
		return err
	}
	tl, err := newTransliterator(conf)
	if err != nil {
		return err
	}
	strip := *noHarakat || conf.Transliteration.NoHarakat

	if flags.NArg() > 0 {
		fmt.Println(tl.Transliterate(strings.Join(flags.Args(), " "), strip))
		return nil
	}
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		res := tl.TransliterateDetailed(scanner.Text(), strip)
		for _, w := range res.Warnings {
			slog.Warn("untransliterated character", "char", w.Char, "index", w.Index)
		}
		fmt.Println(res.Text)
	}
	return scanner.Err()
}

func runDigest(args []string) error {
	flags := pflag.NewFlagSet("digest", pflag.ExitOnError)
	dataDir := dataDirFlag(flags)
	flags.Parse(args)
	if flags.NArg() == 0 {
		return fmt.Errorf("digest: no input files")
	}

	ctx := context.Background()
	eng, err := openEngine(ctx, *dataDir)
	if err != nil {
		return err
	}
	for _, name := range flags.Args() {
		data, err := os.ReadFile(name)
		if err != nil {
			eng.Close(ctx)
			return err
		}
		if _, err := eng.session.Commit(ctx, string(data)); err != nil {
			eng.Close(ctx)
			return err
		}
		// one merge at a time, so wait before the next file
		if err := eng.session.Sync(ctx); err != nil {
			eng.Close(ctx)
			return err
		}
		slog.Info("digested", "file", name)
	}
	return eng.Close(ctx)
}

func runSuggest(args []string) error {
	flags := pflag.NewFlagSet("suggest", pflag.ExitOnError)
	dataDir := dataDirFlag(flags)
	previous := flags.StringP("previous", "p", "", "the word before the prefix")
	translit := flags.BoolP("translit", "t", false, "the prefix is typed in transliteration")
	flags.Parse(args)
	if flags.NArg() != 1 {
		return fmt.Errorf("suggest: expected exactly one prefix")
	}

	ctx := context.Background()
	eng, err := openEngine(ctx, *dataDir)
	if err != nil {
		return err
	}
	defer eng.Close(ctx)

	mode := common.ModeComplete
	if *translit {
		mode = common.ModeTransliterate
	}
	sug, err := eng.session.Keystroke(ctx, editor.Span{
		Text:      flags.Arg(0),
		Previous:  *previous,
		Mode:      mode,
		NoHarakat: eng.conf.Transliteration.NoHarakat,
	})
	if err != nil {
		return err
	}
	return printJSON(sug)
}

func runWords(args []string) error {
	flags := pflag.NewFlagSet("words", pflag.ExitOnError)
	dataDir := dataDirFlag(flags)
	limit := flags.IntP("limit", "n", 50, "maximum number of words")
	flags.Parse(args)
	if flags.NArg() != 1 {
		return fmt.Errorf("words: expected exactly one pattern")
	}

	ctx := context.Background()
	eng, err := openEngine(ctx, *dataDir)
	if err != nil {
		return err
	}
	defer eng.Close(ctx)

	words, err := eng.session.MatchWords(ctx, flags.Arg(0), *limit)
	if err != nil {
		return err
	}
	return printWords(os.Stdout, words)
}

func printWords(w io.Writer, words []dictionary.Word) error {
	for _, word := range words {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n", word.Count, word.Previous, word.Text); err != nil {
			return err
		}
	}
	return nil
}

func runRealign(args []string) error {
	flags := pflag.NewFlagSet("realign", pflag.ExitOnError)
	dataDir := dataDirFlag(flags)
	dryRun := flags.Bool("dry-run", false, "report without changing the store")
	flags.Parse(args)

	ctx := context.Background()
	conf, _, err := loadConfig(*dataDir)
	if err != nil {
		return err
	}
	tl, err := newTransliterator(conf)
	if err != nil {
		return err
	}
	stores, err := docstore.InitDB(ctx, conf, tl)
	if err != nil {
		return err
	}
	defer stores.Close()

	report, err := dictionary.Realign(ctx, stores.WordStore(), conf.Dictionary.MinimumWordLength, *dryRun)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func runServe(args []string) error {
	flags := pflag.NewFlagSet("serve", pflag.ExitOnError)
	dataDir := dataDirFlag(flags)
	address := flags.StringP("address", "a", "", "address to bind, overrides config")
	port := flags.IntP("port", "p", 0, "port to bind, overrides config")
	flags.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := openEngine(ctx, *dataDir)
	if err != nil {
		return err
	}
	serverConf := eng.conf.Server
	if *address != "" {
		serverConf.Addr = *address
	}
	if *port != 0 {
		serverConf.Port = *port
	}

	e := server.NewServer(server.NewQalamController(eng.session, eng.conf), serverConf, eng.logger)
	serveErr := server.StartServer(ctx, e, serverConf)

	// ctx is done by now; saving must not be cut short by it
	if err := eng.Close(context.Background()); err != nil {
		return err
	}
	return serveErr
}
