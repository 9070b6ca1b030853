//go:build ignore

// Build script for mlprep.
//
// Usage:
//
//	go run build.go -target=build
//	go run build.go -target=test -v
//	go run build.go -target=release
//	go run build.go -target=clean
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	binaryName    = "mlprep"
	mainPackage   = "./cmd/mlprep"
	versionModule = "mlprep/pkg/contracts"
)

var (
	rootDir string
	distDir string

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// BuildContext carries the options shared by every target.
type BuildContext struct {
	Verbose bool
	GOOS    string
	GOARCH  string
}

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic(fmt.Sprintf("go.mod not found in %s; run the build script from the module root", rootDir))
	}
}

func main() {
	target := flag.String("target", "build", "Build target (build, test, release, clean)")
	verbose := flag.Bool("v", false, "Verbose output")
	goos := flag.String("os", runtime.GOOS, "Target operating system for release builds")
	goarch := flag.String("arch", runtime.GOARCH, "Target architecture for release builds")
	flag.Parse()

	if os.Getenv("NO_COLOR") != "" {
		colorReset, colorRed, colorGreen, colorYellow, colorCyan = "", "", "", "", ""
	}

	ctx := &BuildContext{Verbose: *verbose, GOOS: *goos, GOARCH: *goarch}
	startTime := time.Now()

	var err error
	switch *target {
	case "build":
		err = build(ctx, false)
	case "release":
		err = build(ctx, true)
	case "test":
		err = runTests(ctx)
	case "clean":
		err = clean(ctx)
	default:
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("%s completed in %s", *target, time.Since(startTime).Round(time.Millisecond)))
}

// ldflags stamps build metadata into the contracts package.
func ldflags(release bool) string {
	flags := []string{
		fmt.Sprintf("-X %s.BuildTime=%s", versionModule, time.Now().UTC().Format(time.RFC3339)),
		fmt.Sprintf("-X %s.GitCommit=%s", versionModule, gitCommit()),
	}
	if release {
		flags = append([]string{"-s", "-w"}, flags...)
	}
	return strings.Join(flags, " ")
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func build(ctx *BuildContext, release bool) error {
	if err := os.MkdirAll(distDir, 0755); err != nil {
		return fmt.Errorf("failed to create dist directory: %w", err)
	}

	name := binaryName
	if release {
		name = fmt.Sprintf("%s-%s-%s", binaryName, ctx.GOOS, ctx.GOARCH)
	}
	if ctx.GOOS == "windows" {
		name += ".exe"
	}
	output := filepath.Join(distDir, name)

	args := []string{"build"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	if release {
		args = append(args, "-trimpath")
	}
	args = append(args, "-ldflags", ldflags(release), "-o", output, mainPackage)

	printInfo(fmt.Sprintf("Building %s...", name))
	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	// go-sqlite3 needs cgo.
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1", "GOOS="+ctx.GOOS, "GOARCH="+ctx.GOARCH)
	if err := runCommand(cmd, ctx.Verbose); err != nil {
		return fmt.Errorf("failed to build %s: %w", name, err)
	}

	if info, err := os.Stat(output); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", name, float64(info.Size())/1024/1024))
	}
	return nil
}

func runTests(ctx *BuildContext) error {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go tests failed: %w", err)
	}
	return nil
}

func clean(ctx *BuildContext) error {
	printInfo("Cleaning build artifacts and logs...")

	for _, dir := range []string{distDir, filepath.Join(rootDir, "logs")} {
		if ctx.Verbose {
			fmt.Printf("  removing %s\n", dir)
		}
		if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			printWarning(fmt.Sprintf("Failed to clean %s: %v", dir, err))
		}
	}
	return nil
}

func runCommand(cmd *exec.Cmd, verbose bool) error {
	if verbose {
		fmt.Printf("Running: %s\n", strings.Join(cmd.Args, " "))
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
	out, err := cmd.CombinedOutput()
	if err != nil && len(out) > 0 {
		fmt.Fprintln(os.Stderr, string(out))
	}
	return err
}

func showHelp() {
	fmt.Println("mlprep build script")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  build     Build dist/mlprep for the host platform")
	fmt.Println("  release   Stripped build named mlprep-<os>-<arch>")
	fmt.Println("  test      Run go test -race ./...")
	fmt.Println("  clean     Remove dist/ and logs/")
	fmt.Println()
	fmt.Println("Flags: -v (verbose), -os, -arch")
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorCyan, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[OK]%s %s\n", colorGreen, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARN]%s %s\n", colorYellow, colorReset, msg)
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}
