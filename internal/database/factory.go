package database

import (
	"fmt"

	"github.com/Lumos-Labs-HQ/tclone/internal/database/postgres"
)

// Tools names the client binaries used for dump and restore.
type Tools struct {
	DumpBin    string
	RestoreBin string
}

func NewAdapter(provider string, tools Tools) (DatabaseAdapter, error) {
	switch provider {
	case "postgresql", "postgres":
		return postgres.New(tools.DumpBin, tools.RestoreBin), nil
	default:
		return nil, fmt.Errorf("unsupported database provider: %s", provider)
	}
}
