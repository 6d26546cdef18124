package backup

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportRejectsBadArchives(t *testing.T) {
	svc := NewService(nil, nil, nil)

	err := svc.Import(context.Background(), strings.NewReader("not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode archive")

	err = svc.Import(context.Background(), strings.NewReader(`{"version": 99, "tables": {}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported archive version")
}

func TestRestoreOrderPutsParentsFirst(t *testing.T) {
	pos := map[string]int{}
	for i, table := range restoreOrder {
		pos[table] = i
	}

	// referencing tables must come after the tables they point at
	assert.Less(t, pos["branches"], pos["employees"])
	assert.Less(t, pos["employees"], pos["deductions"])
	assert.Less(t, pos["employees"], pos["attendance"])
	assert.Less(t, pos["employees"], pos["payroll_entries"])
	assert.Less(t, pos["payroll_periods"], pos["payroll_entries"])
}
