package mail

import "fmt"

// Branded wrapper applied to every outbound message.
const bodyShell = `<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
  <h2 style="color: #2E8B57;">Phitku Natural Care</h2>
  <p style="font-size: 16px;">%s</p>
  <br>
  <p style="font-size: 12px; color: #777;">Thank you for trusting nature!</p>
</div>`

// VerificationEmail renders the registration-code message.
func VerificationEmail(displayName, code string) (subject, html string) {
	subject = "Your Phitku Verification Code"
	html = fmt.Sprintf(bodyShell,
		fmt.Sprintf("Hi %s,<br><br>Your verification code is: <b>%s</b>", displayName, code))
	return subject, html
}

// ResetEmail renders the password-reset-code message.
func ResetEmail(displayName, code string) (subject, html string) {
	subject = "Reset Password - Phitku"
	html = fmt.Sprintf(bodyShell,
		fmt.Sprintf("Hi %s,<br><br>Your reset code is: <b>%s</b>", displayName, code))
	return subject, html
}
