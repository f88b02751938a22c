package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskAadhaar(t *testing.T) {
	assert.Equal(t, "2345-XXXX-XXXX", MaskAadhaar("234567890123"))
	assert.Equal(t, "short", MaskAadhaar("short"))
	assert.Equal(t, "", MaskAadhaar(""))
}

func TestMaskPAN(t *testing.T) {
	assert.Equal(t, "ABCD****F", MaskPAN("ABCDE1234F"))
	assert.Equal(t, "AB12", MaskPAN("AB12"))
}

func TestMaskSensitiveMap(t *testing.T) {
	raw := map[string]interface{}{
		"aadhaar":        "234567890123",
		"pan":            "ABCDE1234F",
		"monthly_income": 50000.0,
	}

	masked := maskSensitiveMap(raw)

	assert.Equal(t, "2345-XXXX-XXXX", masked["aadhaar"])
	assert.Equal(t, "ABCD****F", masked["pan"])
	assert.Equal(t, 50000.0, masked["monthly_income"])

	// The input map stays untouched.
	assert.Equal(t, "234567890123", raw["aadhaar"])
}

func TestMaskSensitiveMapEmpty(t *testing.T) {
	assert.Nil(t, maskSensitiveMap(nil))
	assert.Nil(t, maskSensitiveMap(map[string]interface{}{}))
}
