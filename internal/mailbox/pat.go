package mailbox

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// auxOnlyEnv enables pat's experimental aux-callsign-only forwarding so the
// probe lands in the aux mailbox instead of the station's main one.
const auxOnlyEnv = "FW_AUX_ONLY_EXPERIMENT=1"

// PatGateway drives the external pat binary against a mailbox directory
// and a telnet-reachable relay.
type PatGateway struct {
	bin     string
	mailbox string
	log     zerolog.Logger

	// runCmd is swappable for tests; defaults to running the pat binary.
	runCmd func(ctx context.Context, stdin string, args ...string) error
}

// NewPatGateway returns a gateway using the pat binary at bin and the
// mailbox rooted at mailboxBase (containing in/ and out/).
func NewPatGateway(bin, mailboxBase string, log zerolog.Logger) *PatGateway {
	g := &PatGateway{bin: bin, mailbox: mailboxBase, log: log}
	g.runCmd = g.execPat
	return g
}

func (g *PatGateway) execPat(ctx context.Context, stdin string, args ...string) error {
	cmd := exec.CommandContext(ctx, g.bin, args...)
	cmd.Env = append(os.Environ(), auxOnlyEnv)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		g.log.Debug().Str("args", strings.Join(args, " ")).
			Str("output", string(out)).Msg("pat invocation failed")
		return fmt.Errorf("pat %s: %w", args[0], err)
	}
	return nil
}

// Send composes the probe and transmits it over VARA FM through peer.
func (g *PatGateway) Send(ctx context.Context, peer, to, from, subject, body string) error {
	if err := g.runCmd(ctx, body, "compose", "-s", subject, to, "-r", from); err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	if err := g.runCmd(ctx, "", "-s", "connect", "varafm:///"+peer); err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	return nil
}

// PollInbox downloads pending mail over telnet, then scans the inbox for
// the probe subject.
func (g *PatGateway) PollInbox(ctx context.Context, subject string) (bool, error) {
	if err := g.runCmd(ctx, "", "connect", "telnet"); err != nil {
		return false, fmt.Errorf("telnet fetch failed: %w", err)
	}

	subjects, err := scanSubjects(g.inDir())
	if err != nil {
		return false, err
	}
	return subjects[subject], nil
}

// ListOutbox returns the file names queued in the outbox.
func (g *PatGateway) ListOutbox() ([]string, error) {
	return listDir(g.outDir())
}

// PurgeOutbox removes all queued outbox messages.
func (g *PatGateway) PurgeOutbox() error {
	return purgeDir(g.outDir())
}

// PurgeInbox removes all received messages.
func (g *PatGateway) PurgeInbox() error {
	return purgeDir(g.inDir())
}

func (g *PatGateway) inDir() string  { return filepath.Join(g.mailbox, "in") }
func (g *PatGateway) outDir() string { return filepath.Join(g.mailbox, "out") }

// scanSubjects collects the Subject header of every message in dir.
func scanSubjects(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan inbox: %w", err)
	}

	subjects := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		subject, err := readSubject(filepath.Join(dir, entry.Name()))
		if err != nil {
			// A single unreadable message must not hide the others.
			continue
		}
		if subject != "" {
			subjects[subject] = true
		}
	}
	return subjects, nil
}

// readSubject extracts the Subject header from one message file.
func readSubject(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break // end of headers
		}
		if value, ok := strings.CutPrefix(line, "Subject:"); ok {
			return strings.TrimSpace(value), nil
		}
	}
	return "", scanner.Err()
}

func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func purgeDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to purge %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to purge %s: %w", dir, err)
		}
	}
	return nil
}
