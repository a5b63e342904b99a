// Package browser opens article links with the desktop's default browser.
package browser

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/rss-reader/internal/config"
	"github.com/pders01/rss-reader/internal/debuglog"
)

//go:embed openers.toml
var openersTOML []byte

var (
	ErrNoOpener     = errors.New("no application found to open URLs")
	ErrUnsupported  = errors.New("only http and https links can be opened")
	errEmptyCommand = errors.New("empty opener command")
)

type platformOpener struct {
	Commands []string `toml:"commands"`
	Args     []string `toml:"args"`
}

type openersFile struct {
	Platforms map[string]platformOpener `toml:"platforms"`
}

// Opener starts an external program for a URL.
type Opener struct {
	command string
	args    []string
	start   func(name string, args ...string) error
}

// New picks the configured opener, or the first command from the platform
// table that is on PATH.
func New(cfg config.BrowserConfig) (*Opener, error) {
	o := &Opener{start: startDetached}

	if fields := strings.Fields(cfg.Opener); len(fields) > 0 {
		o.command, o.args = fields[0], fields[1:]
		return o, nil
	}

	var table openersFile
	if err := toml.Unmarshal(openersTOML, &table); err != nil {
		return nil, fmt.Errorf("parsing openers.toml: %w", err)
	}
	p, ok := table.Platforms[runtime.GOOS]
	if !ok {
		o.command = config.DefaultOpener()
		return o, nil
	}

	o.command = findCommand(p.Commands...)
	if o.command == "" && len(p.Commands) > 0 {
		o.command = p.Commands[0]
	}
	o.args = p.Args
	if o.command == "" {
		return nil, ErrNoOpener
	}
	return o, nil
}

// Command is the program Open runs, for display.
func (o *Opener) Command() string {
	return strings.Join(append([]string{o.command}, o.args...), " ")
}

// Open launches the opener for rawURL without waiting for it to exit.
func (o *Opener) Open(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrUnsupported, rawURL)
	}

	args := append(append([]string{}, o.args...), u.String())
	debuglog.Debugf("opening %s with %s", u, o.command)
	if err := o.start(o.command, args...); err != nil {
		return fmt.Errorf("starting %s: %w", o.command, err)
	}
	return nil
}

func startDetached(name string, args ...string) error {
	if name == "" {
		return errEmptyCommand
	}
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
