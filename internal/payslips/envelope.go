package payslips

import (
	"fmt"
	"strconv"

	"github.com/icnsas/payslip-vault/internal/domain"
)

// DownloadEnvelope carries the payload and the headers of an inline PDF
// response. ContentLength always equals the stored payload size.
type DownloadEnvelope struct {
	ContentType        string
	ContentDisposition string
	ContentLength      string
	Data               []byte
}

// BuildDownloadEnvelope builds the inline PDF response for a resolved
// payslip. The document's owner must be loaded.
func BuildDownloadEnvelope(payslip *domain.Payslip) DownloadEnvelope {
	cc := ""
	if payslip.Owner != nil {
		cc = payslip.Owner.NationalID
	}

	return DownloadEnvelope{
		ContentType:        "application/pdf",
		ContentDisposition: fmt.Sprintf(`inline; filename="%s/%s-%s"`, payslip.Mount, payslip.Year, cc),
		ContentLength:      strconv.Itoa(len(payslip.Data)),
		Data:               payslip.Data,
	}
}
