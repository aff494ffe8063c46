package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/DanielPopoola/ficmart-billing/internal/core/ports"
)

const invoiceSequenceModulo = 10000

// AtomicSequence is an in-process counter starting at zero. It does not
// survive a restart and gives no uniqueness across processes; the unique
// index on invoice_number is what actually rejects collisions.
type AtomicSequence struct {
	n atomic.Int64
}

func NewAtomicSequence() *AtomicSequence {
	return &AtomicSequence{}
}

func (s *AtomicSequence) Next(_ context.Context) (int64, error) {
	return s.n.Add(1), nil
}

// InvoiceNumberer renders INV-<yyyyMMdd-HHmmss>-<NNNN> numbers in UTC.
type InvoiceNumberer struct {
	seq ports.SequenceSource
	now func() time.Time
}

func NewInvoiceNumberer(seq ports.SequenceSource) *InvoiceNumberer {
	return &InvoiceNumberer{seq: seq, now: time.Now}
}

func (n *InvoiceNumberer) Next(ctx context.Context) (string, error) {
	v, err := n.seq.Next(ctx)
	if err != nil {
		return "", fmt.Errorf("next invoice sequence: %w", err)
	}
	v %= invoiceSequenceModulo
	if v < 0 {
		v += invoiceSequenceModulo
	}
	return fmt.Sprintf("INV-%s-%04d", n.now().UTC().Format("20060102-150405"), v), nil
}
