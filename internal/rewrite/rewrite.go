package rewrite

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/Lumos-Labs-HQ/tclone/internal/ident"
)

// SchemaName derives a tenant's schema from its host: "demo.localhost"
// becomes "demo_localhost".
func SchemaName(host string) string {
	return strings.ReplaceAll(host, ".", "_")
}

// RenameSchema replaces whole-token occurrences of source with target.
// "demo_localhost" does not match inside "demo_localhost_archive".
func RenameSchema(text, source, target string) string {
	if source == "" || source == target {
		return text
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(source) + `\b`)
	return re.ReplaceAllLiteralString(text, target)
}

// RewriteIdentifiers replaces every whole-token, case-insensitive occurrence
// of a mapped identifier with its replacement. Tokens not in the mapping are
// left as they are. Replacements are never originals, so a single pass is
// equivalent to applying each pair in turn.
func RewriteIdentifiers(text string, m ident.Mapping) string {
	if len(m) == 0 {
		return text
	}
	return ident.TokenPattern.ReplaceAllStringFunc(text, func(tok string) string {
		if repl, ok := m.Lookup(tok); ok {
			return repl
		}
		return tok
	})
}

// Rewriter moves a dump from one schema and identity set to another.
type Rewriter struct {
	SourceSchema string
	TargetSchema string
	Mapping      ident.Mapping
}

// Transform renames the schema first, then rewrites identifiers.
func (r *Rewriter) Transform(text string) string {
	return RewriteIdentifiers(r.RenameSchema(text), r.Mapping)
}

func (r *Rewriter) RenameSchema(text string) string {
	return RenameSchema(text, r.SourceSchema, r.TargetSchema)
}

func (r *Rewriter) RewriteIdentifiers(text string) string {
	return RewriteIdentifiers(text, r.Mapping)
}

// TransformFile reads src completely, transforms it and writes dst.
func (r *Rewriter) TransformFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read dump: %w", err)
	}
	out := r.Transform(string(data))
	if err := os.WriteFile(dst, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write transformed dump: %w", err)
	}
	return nil
}
