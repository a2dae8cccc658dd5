package browser

import (
	"fmt"
	"io"
	"os"
	"runtime"

	pkgbrowser "github.com/pkg/browser"
)

type OpenerType string

const (
	OpenerTypeSystem OpenerType = "system" // default desktop browser
	OpenerTypePrint  OpenerType = "print"  // write URLs to an io.Writer
	OpenerTypeAuto   OpenerType = "auto"   // pick based on the environment
)

func (o OpenerType) String() string {
	return string(o)
}

// Opener opens a URL in a new browser tab. Opening is fire-and-forget from
// the caller's point of view; the error only reports failure to launch.
type Opener interface {
	Open(url string) error
}

// Config selects and configures an Opener
type Config struct {
	Type string
	Out  io.Writer // destination for the print opener; os.Stdout when nil
}

// NewOpener creates an Opener based on the provided config
func NewOpener(config Config) (Opener, error) {
	if config.Out == nil {
		config.Out = os.Stdout
	}
	if config.Type == "" || config.Type == OpenerTypeAuto.String() {
		config.Type = bestOpenerForPlatform().String()
	}

	switch config.Type {
	case OpenerTypeSystem.String():
		return &SystemOpener{}, nil
	case OpenerTypePrint.String():
		return &PrintOpener{out: config.Out}, nil
	default:
		return nil, fmt.Errorf("unsupported browser type: %s", config.Type)
	}
}

// bestOpenerForPlatform falls back to printing on Linux hosts with no display.
func bestOpenerForPlatform() OpenerType {
	if runtime.GOOS != "linux" {
		return OpenerTypeSystem
	}
	if os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != "" {
		return OpenerTypeSystem
	}
	return OpenerTypePrint
}

// SystemOpener launches the user's default browser
type SystemOpener struct{}

func (SystemOpener) Open(url string) error {
	if err := pkgbrowser.OpenURL(url); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

// PrintOpener writes each URL on its own line
type PrintOpener struct {
	out io.Writer
}

func NewPrintOpener(out io.Writer) *PrintOpener {
	return &PrintOpener{out: out}
}

func (p *PrintOpener) Open(url string) error {
	_, err := fmt.Fprintln(p.out, url)
	return err
}
