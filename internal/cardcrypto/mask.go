// internal/cardcrypto/mask.go
package cardcrypto

const hiddenGroups = "**** **** **** "

// Mask returns the display form of a PAN exposing only its last four characters.
// Inputs shorter than four characters, including the empty string, become "****".
func Mask(pan string) string {
	if len(pan) < 4 {
		return "****"
	}
	return hiddenGroups + pan[len(pan)-4:]
}
