package payroll

import "github.com/shopspring/decimal"

// ApplyOverride edits a draft and recomputes its net salary. Nothing is
// changed if any field is rejected.
//
// Money fields must not be negative. The loan deduction may only be lowered:
// it is capped by the proposed installment and by the remaining balance.
func (r *Record) ApplyOverride(o Override) error {
	if r.IsPaid() {
		return ErrRecordFinalized
	}

	next := *r
	fields := []struct {
		name string
		src  *decimal.Decimal
		dst  *decimal.Decimal
	}{
		{"incentives", o.Incentives, &next.Incentives},
		{"commissions", o.Commissions, &next.Commissions},
		{"bonuses", o.Bonuses, &next.Bonuses},
		{"deductions", o.Deductions, &next.Deductions},
		{"insurance", o.Insurance, &next.Insurance},
		{"loan_deduction", o.LoanDeduction, &next.LoanDeduction},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		if f.src.IsNegative() {
			return &OverrideError{Field: f.name, Value: *f.src, Reason: "must not be negative"}
		}
		*f.dst = *f.src
	}

	if o.LoanDeduction != nil {
		d := *o.LoanDeduction
		switch {
		case r.LoanID == "" && d.IsPositive():
			return &OverrideError{Field: "loan_deduction", Value: d, Reason: "worker has no active loan"}
		case d.GreaterThan(r.LoanProposed):
			return &OverrideError{Field: "loan_deduction", Value: d, Reason: "exceeds proposed installment " + r.LoanProposed.String()}
		case d.GreaterThan(r.LoanRemaining):
			return &OverrideError{Field: "loan_deduction", Value: d, Reason: "exceeds remaining balance " + r.LoanRemaining.String()}
		}
	}

	next.recompute()
	*r = next
	return nil
}
