// internal/orchestrator/mask.go
package orchestrator

// MaskAadhaar hides all but the first four digits of an Aadhaar number.
// Values too short to be an Aadhaar pass through unchanged.
func MaskAadhaar(value string) string {
	if len(value) < 12 {
		return value
	}
	return value[:4] + "-XXXX-XXXX"
}

// MaskPAN hides the middle of a PAN, keeping the first four characters and
// the final check letter.
func MaskPAN(value string) string {
	if len(value) < 10 {
		return value
	}
	return value[:4] + "****" + value[len(value)-1:]
}

// maskSensitiveMap returns a copy of raw with aadhaar and pan values
// masked. Raw identifiers must never reach a response payload.
func maskSensitiveMap(raw map[string]interface{}) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}

	masked := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		masked[k] = v
	}
	if aadhaar, ok := masked["aadhaar"].(string); ok && aadhaar != "" {
		masked["aadhaar"] = MaskAadhaar(aadhaar)
	}
	if pan, ok := masked["pan"].(string); ok && pan != "" {
		masked["pan"] = MaskPAN(pan)
	}
	return masked
}
