package errors

import "fmt"

// ERR is the machine readable error code carried by every *Error.
// Codes are grouped in ranges of ten, see GetErrorCategory.
type ERR int32

const (
	ERR_UNKNOWN            ERR = 0
	ERR_INVALID_ARGUMENT   ERR = 1
	ERR_THRESHOLD_EXCEEDED ERR = 2
	ERR_NOT_FOUND          ERR = 3
	ERR_PROCESSING         ERR = 4
	ERR_CONFIGURATION      ERR = 5
	ERR_CONTEXT            ERR = 6
	ERR_CONTEXT_CANCELED   ERR = 7
	ERR_ERROR              ERR = 9

	ERR_TX_NOT_FOUND            ERR = 30
	ERR_TX_INVALID              ERR = 31
	ERR_TX_INVALID_DOUBLE_SPEND ERR = 32
	ERR_TX_ALREADY_EXISTS       ERR = 33
	ERR_TX_ERROR                ERR = 34
	ERR_TX_DECODE               ERR = 35

	ERR_SIGNATURE_INVALID ERR = 40
	ERR_SIGNATURE_SCHEME  ERR = 41

	ERR_SERVICE_UNAVAILABLE ERR = 50
	ERR_SERVICE_NOT_STARTED ERR = 51
	ERR_SERVICE_ERROR       ERR = 52

	ERR_STORAGE_UNAVAILABLE ERR = 60
	ERR_STORAGE_NOT_STARTED ERR = 61
	ERR_STORAGE_ERROR       ERR = 62

	ERR_UTXO_NOT_FOUND      ERR = 70
	ERR_UTXO_ALREADY_EXISTS ERR = 71
	ERR_UTXO_SPENT          ERR = 72
)

var ERR_name = map[int32]string{
	0:  "UNKNOWN",
	1:  "INVALID_ARGUMENT",
	2:  "THRESHOLD_EXCEEDED",
	3:  "NOT_FOUND",
	4:  "PROCESSING",
	5:  "CONFIGURATION",
	6:  "CONTEXT",
	7:  "CONTEXT_CANCELED",
	9:  "ERROR",
	30: "TX_NOT_FOUND",
	31: "TX_INVALID",
	32: "TX_INVALID_DOUBLE_SPEND",
	33: "TX_ALREADY_EXISTS",
	34: "TX_ERROR",
	35: "TX_DECODE",
	40: "SIGNATURE_INVALID",
	41: "SIGNATURE_SCHEME",
	50: "SERVICE_UNAVAILABLE",
	51: "SERVICE_NOT_STARTED",
	52: "SERVICE_ERROR",
	60: "STORAGE_UNAVAILABLE",
	61: "STORAGE_NOT_STARTED",
	62: "STORAGE_ERROR",
	70: "UTXO_NOT_FOUND",
	71: "UTXO_ALREADY_EXISTS",
	72: "UTXO_SPENT",
}

var ERR_value = func() map[string]int32 {
	m := make(map[string]int32, len(ERR_name))
	for k, v := range ERR_name {
		m[v] = k
	}

	return m
}()

// Enum returns the symbolic name of the code.
func (x ERR) Enum() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return fmt.Sprintf("ERR(%d)", int32(x))
}

func (x ERR) String() string {
	return x.Enum()
}
