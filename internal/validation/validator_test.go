package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/payroll-batch/internal/config"
	"github.com/ginjaninja78/payroll-batch/internal/types"
)

var testNow = time.Date(2026, 10, 16, 15, 45, 0, 0, time.UTC)

func builtinRules(t *testing.T, name string) RuleSet {
	t.Helper()
	for _, p := range config.BuiltinProfiles() {
		if p.Name == name {
			rules, err := Compile(p.Columns)
			require.NoError(t, err)
			return rules
		}
	}
	t.Fatalf("no built-in profile %q", name)
	return nil
}

func validPayment() types.Row {
	return types.Row{
		"batchId":        "BATCH-1",
		"date":           "2026-10-16",
		"debitAccount":   "100200",
		"creditAccount":  "300400",
		"debitCurrency":  "USD",
		"creditCurrency": "EUR",
		"debitAmount":    "1500.50",
		"employeeName":   "Jane Doe",
		"bankId":         "1234567",
		"remarks":        "",
	}
}

func TestValidate_CleanRow(t *testing.T) {
	errs := Validate(validPayment(), builtinRules(t, "payments"), testNow)

	require.NotNil(t, errs)
	assert.True(t, errs.Clean())
}

func TestValidate_Payments(t *testing.T) {
	rules := builtinRules(t, "payments")

	tests := []struct {
		name      string
		field     string
		value     string
		wantError string
	}{
		{name: "bank id with 7 digits", field: "bankId", value: "7654321"},
		{name: "bank id with 6 digits", field: "bankId", value: "123456", wantError: "Bank ID must be exactly 7 digits"},
		{name: "bank id with 8 digits", field: "bankId", value: "12345678", wantError: "Bank ID must be exactly 7 digits"},
		{name: "bank id with letters", field: "bankId", value: "12345a7", wantError: "Bank ID must be exactly 7 digits"},
		{name: "blank bank id", field: "bankId", value: "", wantError: "Bank ID must be exactly 7 digits"},
		{name: "zero amount", field: "debitAmount", value: "0", wantError: "Valid Debit Amount is required"},
		{name: "negative amount", field: "debitAmount", value: "-5", wantError: "Valid Debit Amount is required"},
		{name: "non-numeric amount", field: "debitAmount", value: "12abc", wantError: "Valid Debit Amount is required"},
		{name: "amount with spaces", field: "debitAmount", value: " 10.25 "},
		{name: "name with digit", field: "employeeName", value: "Jane 2", wantError: "Employee Name must contain only alphabets"},
		{name: "name with accent", field: "employeeName", value: "José", wantError: "Employee Name must contain only alphabets"},
		{name: "whitespace currency", field: "debitCurrency", value: "   ", wantError: "Debit Currency is required"},
		{name: "date today", field: "date", value: "2026-10-16"},
		{name: "date in future", field: "date", value: "2027-01-01"},
		{name: "date yesterday", field: "date", value: "2026-10-15", wantError: "Date cannot be in the past"},
		{name: "date wrong shape", field: "date", value: "16/10/2026", wantError: "Date must be in yyyy-mm-dd format"},
		{name: "date impossible", field: "date", value: "2026-02-30", wantError: "Date must be in yyyy-mm-dd format"},
		{name: "blank date", field: "date", value: "", wantError: "Date must be in yyyy-mm-dd format"},
		{name: "remarks free text", field: "remarks", value: "anything at all 123 !"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validPayment()
			row[tt.field] = tt.value

			errs := Validate(row, rules, testNow)

			if tt.wantError == "" {
				assert.True(t, errs.Clean(), "unexpected errors: %v", errs)
				return
			}
			assert.Equal(t, types.ErrorMap{tt.field: tt.wantError}, errs)
		})
	}
}

func TestValidate_ReportsEveryFailingField(t *testing.T) {
	row := validPayment()
	row["bankId"] = "12"
	row["debitAmount"] = ""
	row["employeeName"] = "R2D2"
	delete(row, "creditCurrency")

	errs := Validate(row, builtinRules(t, "payments"), testNow)

	assert.Equal(t, []string{"bankId", "creditCurrency", "debitAmount", "employeeName"}, errs.Fields())
	assert.Equal(t, "Credit Currency is required", errs["creditCurrency"])
}

func TestValidate_Transfers(t *testing.T) {
	rules := builtinRules(t, "transfers")
	row := types.Row{
		"batchId":        "BATCH-1",
		"transactionId":  "TXN-ABC",
		"date":           "2020-01-01",
		"debitAccount":   "1234567",
		"creditAccount":  "12345678",
		"debitCurrency":  "US1",
		"creditCurrency": "EUR",
		"debitAmount":    "abc",
		"creditAmount":   "-12.5",
		"employeeName":   "John Smith",
		"bankID":         "1234567",
	}

	errs := Validate(row, rules, testNow)

	assert.Equal(t, types.ErrorMap{
		"debitAccount":  "Must be 8 digits",
		"debitCurrency": "Alphabets only",
		"debitAmount":   "Must be numeric",
	}, errs, "past dates and negative credit amounts are allowed for transfers")
}

func TestValidate_Idempotent(t *testing.T) {
	rules := builtinRules(t, "payments")
	row := validPayment()
	row["bankId"] = "1"

	first := Validate(row, rules, testNow)
	second := Validate(row, rules, testNow)

	assert.Equal(t, first, second)
}

func TestValidate_DateGoesStale(t *testing.T) {
	rules := builtinRules(t, "payments")
	row := validPayment()

	assert.True(t, Validate(row, rules, testNow).Clean())

	tomorrow := testNow.Add(24 * time.Hour)
	assert.Equal(t, "Date cannot be in the past", Validate(row, rules, tomorrow)["date"])
}

func TestValidate_NotPastUsesCallerLocation(t *testing.T) {
	rules := RuleSet{{Field: "date", Rules: []Rule{NotPast("past")}}}

	// 01:00 on the 17th in UTC+3 is still the 16th in UTC.
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2026, 10, 17, 1, 0, 0, 0, loc)

	assert.Equal(t, "past", Validate(types.Row{"date": "2026-10-16"}, rules, now)["date"])
	assert.True(t, Validate(types.Row{"date": "2026-10-17"}, rules, now).Clean())
}

func TestValidate_FirstFailingRuleWins(t *testing.T) {
	rules := RuleSet{{Field: "amount", Rules: []Rule{
		Numeric("not a number"),
		Positive("not positive"),
	}}}

	assert.Equal(t, "not a number", Validate(types.Row{"amount": "x"}, rules, testNow)["amount"])
	assert.Equal(t, "not positive", Validate(types.Row{"amount": "-1"}, rules, testNow)["amount"])
}

func TestValidate_BlankSkipsNonRequiredRules(t *testing.T) {
	rules := RuleSet{{Field: "account", Rules: []Rule{Digits(8, "eight digits")}}}

	assert.True(t, Validate(types.Row{"account": "  "}, rules, testNow).Clean())
	assert.True(t, Validate(types.Row{}, rules, testNow).Clean())
	assert.False(t, Validate(types.Row{"account": "123"}, rules, testNow).Clean())
}

func TestValidator_ValidateAll(t *testing.T) {
	v := NewValidator(builtinRules(t, "payments"))

	bad := validPayment()
	bad["bankId"] = ""

	results := v.ValidateAll([]types.Row{validPayment(), bad}, testNow)

	require.Len(t, results, 2)
	assert.True(t, results[0].Clean())
	assert.Equal(t, []string{"bankId"}, results[1].Fields())
	assert.Equal(t, results[1], v.Validate(bad, testNow))
}

func TestFromSpec_DefaultMessages(t *testing.T) {
	tests := []struct {
		spec config.RuleSpec
		bad  string
		want string
	}{
		{spec: config.RuleSpec{Type: config.RuleRequired}, bad: "", want: "Salary is required"},
		{spec: config.RuleSpec{Type: config.RuleDate}, bad: "2026-13-01", want: "Salary must be a valid yyyy-mm-dd date"},
		{spec: config.RuleSpec{Type: config.RuleNotPast}, bad: "2000-01-01", want: "Salary cannot be in the past"},
		{spec: config.RuleSpec{Type: config.RuleDigits, Length: 3}, bad: "12", want: "Salary must be exactly 3 digits"},
		{spec: config.RuleSpec{Type: config.RuleAlpha}, bad: "a b", want: "Salary must contain only alphabets"},
		{spec: config.RuleSpec{Type: config.RuleName}, bad: "a-b", want: "Salary must contain only alphabets and spaces"},
		{spec: config.RuleSpec{Type: config.RuleNumeric}, bad: "1,000", want: "Salary must be numeric"},
		{spec: config.RuleSpec{Type: config.RulePositive}, bad: "0.00", want: "Salary must be greater than zero"},
		{spec: config.RuleSpec{Type: config.RuleNumeric, Message: "custom"}, bad: "x", want: "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			rule, err := FromSpec(tt.spec, "Salary")
			require.NoError(t, err)

			errs := Validate(types.Row{"salary": tt.bad}, RuleSet{{Field: "salary", Rules: []Rule{rule}}}, testNow)
			assert.Equal(t, tt.want, errs["salary"])
		})
	}
}

func TestFromSpec_Errors(t *testing.T) {
	_, err := FromSpec(config.RuleSpec{Type: "luhn"}, "Card")
	assert.Error(t, err)

	_, err = FromSpec(config.RuleSpec{Type: config.RuleDigits}, "Card")
	assert.Error(t, err)
}

func TestCompile_SkipsColumnsWithoutRules(t *testing.T) {
	rules := builtinRules(t, "payments")

	assert.Equal(t, []string{
		"date", "debitAccount", "creditAccount", "debitCurrency",
		"debitAmount", "creditCurrency", "employeeName", "bankId",
	}, rules.Fields())
}
