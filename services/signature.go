package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the raw request body
const SignatureHeader = "X-Webhook-Signature"

// VerifyWebhookSignature checks the caller-supplied signature against an
// HMAC-SHA256 digest of the raw body computed with the shared secret.
//
// No configured secret means verification is skipped entirely (open mode for
// early deployments). A configured secret with a missing header is rejected
// unless allowUnsigned is set, in which case the request is accepted with a
// warning. The comparison itself is constant time.
func VerifyWebhookSignature(body []byte, signature, secret string, allowUnsigned bool) bool {
	if secret == "" {
		log.Println("[WARNING] Webhook secret not configured, skipping signature verification")
		return true
	}

	if signature == "" {
		if allowUnsigned {
			log.Println("[WARNING] Missing webhook signature, accepting per WEBHOOK_ALLOW_UNSIGNED")
			return true
		}
		log.Println("Missing webhook signature")
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		log.Println("Malformed webhook signature")
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	if !hmac.Equal(provided, expected) {
		log.Println("Invalid webhook signature")
		return false
	}

	return true
}

// SignWebhookBody computes the hex signature a caller would attach for the
// given body and secret. Used by tests and outbound alerting.
func SignWebhookBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
