package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAliases_Canonical(t *testing.T) {
	aliases := DefaultAliases()

	tests := []struct {
		header string
		want   string
	}{
		{"PCB Sr No.", ColumnPCBSrNo},
		{"  pcb   sr no ", ColumnPCBSrNo},
		{"pcb_sr_no", ColumnPCBSrNo},
		{"Serial Number", ColumnPCBSrNo},
		{"Sr. No.", ColumnSrNo},
		{"Repair Date", ColumnCreatedAt},
		{"Model Type", ColumnModel},
		{"Linen Item No", ColumnLineItemNo},
		{"Symp. Defe.", ColumnSymptom},
		{"Defect Description", ColumnDefect},
	}
	for _, tt := range tests {
		got, ok := aliases.Canonical(tt.header)
		if assert.True(t, ok, "header %q should resolve", tt.header) {
			assert.Equal(t, tt.want, got, "header %q", tt.header)
		}
	}

	_, ok := aliases.Canonical("Warehouse")
	assert.False(t, ok)
}

func TestDefaultAliases_EveryColumnMatchesItself(t *testing.T) {
	aliases := DefaultAliases()
	for _, col := range SourceColumns {
		got, ok := aliases.Canonical(col)
		assert.True(t, ok, col)
		assert.Equal(t, col, got)
	}
}

func TestParseAliases_Errors(t *testing.T) {
	_, err := ParseAliases([]byte("warehouse:\n  - wh\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown column")

	_, err = ParseAliases([]byte("lot_no:\n  - batch\nrf_no:\n  - batch\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maps to both")

	_, err = ParseAliases([]byte("lot_no: [unclosed"))
	require.Error(t, err)
}

func TestAliasTable_WithDoesNotMutate(t *testing.T) {
	base := DefaultAliases()
	extended := base.With("Board ID", ColumnPCBSrNo)

	got, ok := extended.Canonical("board id")
	require.True(t, ok)
	assert.Equal(t, ColumnPCBSrNo, got)

	_, ok = base.Canonical("Board ID")
	assert.False(t, ok, "With must not change the receiver")
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "pcb sr no", NormalizeHeader("  PCB_Sr\tNo "))
	assert.Equal(t, "", NormalizeHeader("   "))
}
