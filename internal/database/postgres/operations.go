package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/Lumos-Labs-HQ/tclone/internal/database/common"
)

// Dump streams `pg_dump --schema <schema>` to w.
func (p *Adapter) Dump(ctx context.Context, schema string, w io.Writer) error {
	args := dumpArgs(schema, p.url)
	return p.run(ctx, p.dumpBin, args, nil, w)
}

// Apply feeds r to psql. ON_ERROR_STOP makes the first failing statement
// abort with a non-zero exit.
func (p *Adapter) Apply(ctx context.Context, r io.Reader) error {
	args := restoreArgs(p.url)
	return p.run(ctx, p.restoreBin, args, r, io.Discard)
}

func dumpArgs(schema, url string) []string {
	return []string{
		"--schema", schema,
		"--no-owner",
		"--no-acl",
		"--dbname", url,
	}
}

func restoreArgs(url string) []string {
	return []string{
		"--no-psqlrc",
		"--quiet",
		"-v", "ON_ERROR_STOP=1",
		"--dbname", url,
	}
}

func (p *Adapter) run(ctx context.Context, bin string, args []string, stdin io.Reader, stdout io.Writer) error {
	if p.url == "" {
		return fmt.Errorf("%s: adapter is not connected", bin)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &common.ProcessError{
			Tool:     bin,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	return fmt.Errorf("failed to run %s: %w", bin, err)
}
