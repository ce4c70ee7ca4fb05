package payslips

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPayslipNotFound = errors.New("payslip not found")
	ErrOwnerNotFound   = errors.New("owner not found")
	ErrEmptyUpload     = errors.New("no files in upload")
)

// BatchOwnersError is returned when a batch upload references owners
// that do not exist in the directory. It carries every missing
// identifier so callers can correct and retry; nothing from the batch
// is persisted.
type BatchOwnersError struct {
	NotFound []string
}

func (e *BatchOwnersError) Error() string {
	return fmt.Sprintf("some users were not found in the system: %s", strings.Join(e.NotFound, ", "))
}
