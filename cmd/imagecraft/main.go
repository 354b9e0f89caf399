package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gogpu/gg"

	"github.com/ivlev/imagecraft/internal/config"
	"github.com/ivlev/imagecraft/internal/editor"
	"github.com/ivlev/imagecraft/internal/session"
	"github.com/ivlev/imagecraft/internal/source"
	"github.com/ivlev/imagecraft/internal/system"
	"github.com/ivlev/imagecraft/internal/tui"
)

var version = "dev"

func main() {
	configPtr := flag.String("config", "", "Путь к YAML-конфигу (по умолчанию: встроенные настройки)")
	inputPtr := flag.String("input", "", "Фон: файл, URL, data: URL или PDF (по умолчанию: самый свежий файл в input/)")
	templatePtr := flag.String("template", "", "Шаблон как строка запроса редактора, например ?template=%2Ftemplates%2F1.jpeg")
	textPtr := flag.String("text", "", "Текст для быстрого экспорта без сценария (\\n - перенос строки)")
	scriptPtr := flag.String("script", "", "Сценарий YAML, список через запятую, папка со сценариями или latest")
	outputPtr := flag.String("output", "", "Путь к PNG (если пусто, генерируется автоматически в output/)")
	tuiPtr := flag.Bool("tui", false, "Интерактивный редактор в терминале")
	workersPtr := flag.Int("workers", runtime.NumCPU(), "Потоки для пакетного режима")
	statsPtr := flag.Bool("stats", false, "Показать отчёт о ресурсах")
	debugPtr := flag.Bool("debug", false, "Подробный лог рендерера")
	qrPtr := flag.String("qr", "", "Текст QR-кода в углу экспорта")
	autoColorPtr := flag.Bool("auto-color", false, "Подбирать цвет текста под яркость фона")
	logPtr := flag.String("log", "", "Файл лога для интерактивного режима")

	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}
	cfg.BuildVersion = version

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			cfg.Workers = *workersPtr
		case "stats":
			cfg.ShowStats = *statsPtr
		case "debug":
			cfg.Debug = *debugPtr
		case "qr":
			cfg.QRText = *qrPtr
		case "auto-color":
			cfg.AutoColor = *autoColorPtr
		case "log":
			cfg.LogFile = *logPtr
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	if cfg.Debug {
		gg.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *scriptPtr == "latest" {
		latest, err := session.FindLatestScript(cfg.OutputDir)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v", err)
		}
		fmt.Printf("[*] Последний сценарий: %s\n", latest)
		*scriptPtr = latest
	}

	startTime := time.Now()

	switch {
	case *scriptPtr != "" && !*tuiPtr:
		runBatch(ctx, cfg, *scriptPtr)
	default:
		runEditor(ctx, cfg, *inputPtr, *templatePtr, *textPtr, *scriptPtr, *outputPtr, *tuiPtr)
	}

	if cfg.ShowStats {
		printReport(cfg, time.Since(startTime))
	}
}

func runBatch(ctx context.Context, cfg *config.Config, arg string) {
	paths, err := scriptPaths(arg)
	if err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}
	fmt.Printf("[*] Сценариев: %d | Потоков: %d\n", len(paths), cfg.Workers)

	reports, err := session.RunBatch(ctx, cfg, paths, cfg.Workers)
	if err != nil {
		log.Fatalf("[-] Ошибка сценария: %v", err)
	}
	for _, rep := range reports {
		for _, p := range rep.Exports {
			fmt.Printf("[+++] %s: %s\n", rep.Name, p)
		}
	}
}

// scriptPaths expands a comma-separated list; directories contribute all
// of their .yaml files.
func scriptPaths(arg string) ([]string, error) {
	var paths []string
	for _, p := range strings.Split(arg, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			paths = append(paths, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.yaml"))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("сценарии не найдены: %s", arg)
	}
	return paths, nil
}

func runEditor(ctx context.Context, cfg *config.Config, input, template, text, script, output string, interactive bool) {
	ed, err := editor.New(cfg)
	if err != nil {
		log.Fatalf("[-] Ошибка инициализации редактора: %v", err)
	}

	bg := resolveBackground(input, template, interactive)
	if bg != "" {
		if strings.HasSuffix(strings.ToLower(bg), ".pdf") {
			if n, err := source.PageCount(bg); err == nil && n > 1 {
				fmt.Printf("[*] PDF: %d стр., используется первая\n", n)
			}
		}
		fmt.Printf("[*] Фон: %s\n", bg)
		ed.LoadBackground(ctx, bg)
	}

	if script != "" {
		s, err := session.ReadScript(script)
		if err != nil {
			log.Fatalf("[-] Ошибка чтения сценария: %v", err)
		}
		if _, err := session.NewRunner(cfg).Replay(ctx, ed, s); err != nil {
			log.Fatalf("[-] Ошибка сценария: %v", err)
		}
		fmt.Printf("[*] Используется сценарий: %s\n", script)
	}

	if interactive {
		if err := tui.Run(ctx, cfg, ed); err != nil {
			log.Fatalf("[-] Ошибка интерфейса: %v", err)
		}
		return
	}

	if err := ed.WaitLoad(ctx); err != nil {
		log.Fatalf("[-] Фон не загружен: %v", err)
	}
	if text != "" {
		c := ed.Compositor()
		if err := c.SetText(strings.ReplaceAll(text, `\n`, "\n")); err != nil {
			log.Fatalf("[-] Ошибка текста: %v", err)
		}
		c.AddText()
	}

	if output == "" {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			log.Fatalf("[-] Ошибка создания папки %s: %v", cfg.OutputDir, err)
		}
		output = session.GenerateExportPath(cfg.OutputDir, exportName(bg))
	}
	if err := ed.SaveExportAs(output); err != nil {
		log.Fatalf("[-] Ошибка экспорта: %v", err)
	}
	fmt.Printf("[+++] Успех! Результат: %s\n", output)
}

// resolveBackground picks the background: explicit input, then the
// template query, then the newest file in input/ for one-shot runs.
func resolveBackground(input, template string, interactive bool) string {
	if input != "" {
		return input
	}
	if template != "" {
		if t, err := source.TemplateFromQuery(template); err == nil {
			return t
		}
		return template
	}
	if interactive {
		return ""
	}
	latest, err := system.FindLatestImage("input")
	if err != nil {
		log.Printf("[!] %v. Экспорт без фона", err)
		return ""
	}
	fmt.Printf("[*] Выбран файл: %s\n", latest)
	return latest
}

func exportName(bg string) string {
	if bg == "" || source.Classify(bg) == source.KindData {
		return ""
	}
	base := filepath.Base(bg)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(name, " ", "_")
}

func printReport(cfg *config.Config, total time.Duration) {
	stats, err := system.ReadStats()
	if err != nil {
		log.Printf("[!] Статистика недоступна: %v", err)
		return
	}
	fmt.Printf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"%s\n"+
			"----------------------------\n",
		cfg.BuildVersion, total.Seconds(), stats,
	)
}
