package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/freelancehub/wallet-ledger/internal/models"
)

var walletExportHeader = []string{"User", "Email", "Balance", "Status", "Last Updated"}

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportWallets streams every wallet as CSV.
func (s *WalletService) ExportWallets(ctx context.Context, w io.Writer) error {
	rows, err := s.store.Queries().ListWalletExportRows(ctx)
	if err != nil {
		return fmt.Errorf("list wallets for export: %w", err)
	}
	return writeWalletCSV(w, rows)
}

func writeWalletCSV(w io.Writer, rows []models.WalletExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(walletExportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		status := "Active"
		if row.IsLocked {
			status = "Locked"
		}
		record := []string{
			row.UserName,
			row.Email,
			strconv.FormatInt(row.Balance, 10),
			status,
			row.UpdatedAt.UTC().Format(exportTimeLayout),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
