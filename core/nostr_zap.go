package core

// nostr_zap.go – the NIP-57 zap pipeline: turn a Lightning address into a
// paid, attributable zap receipt. Follows a "validate, resolve, build
// request, pay, verify" payment flow built against LNURL/BOLT11.

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrZapInvalidLightningAddress = errors.New("zap: invalid lightning address")
	ErrZapUnsafeEndpoint          = errors.New("zap: lnurl endpoint resolves to a disallowed address")
	ErrZapBadLNURLResponse        = errors.New("zap: lnurl-pay response missing required fields")
	ErrZapAmountOutsideBounds     = errors.New("zap: requested amount outside min/max sendable")
	ErrZapInvoiceAmountMismatch   = errors.New("zap: invoice amount does not match requested amount")
	ErrZapDescriptionHashMismatch = errors.New("zap: invoice description hash does not match zap request")
)

// zapHTTPClient is a package variable; it defaults to a short-timeout client so
// a slow or hung LNURL endpoint cannot stall the zap pipeline indefinitely.
var zapHTTPClient = &http.Client{Timeout: 10 * time.Second}

// LNURLPayResponse is the JSON document a lightning-address's well-known
// endpoint returns.
type LNURLPayResponse struct {
	Callback       string `json:"callback"`
	MaxSendable    uint64 `json:"maxSendable"`
	MinSendable    uint64 `json:"minSendable"`
	Metadata       string `json:"metadata"`
	Tag            string `json:"tag"`
	AllowsNostr    bool   `json:"allowsNostr"`
	NostrPubkey    string `json:"nostrPubkey"`
}

// ZapResult is the outcome of a completed zap: the invoice that was paid
// and the wallet URI the caller should open to actually settle it, plus
// the zap request event that was published alongside it.
type ZapResult struct {
	Invoice    *Bolt11Invoice
	WalletURI  string
	ZapRequest *Event
}

// ValidateLightningAddress checks the user@domain shape required of a
// Lightning address before any network call is made.
func ValidateLightningAddress(addr string) (user, domain string, err error) {
	parts := strings.SplitN(addr, "@", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.Contains(parts[1], "@") {
		return "", "", ErrZapInvalidLightningAddress
	}
	if strings.ContainsAny(parts[0], " \t\n") || strings.ContainsAny(parts[1], " \t\n") {
		return "", "", ErrZapInvalidLightningAddress
	}
	return parts[0], parts[1], nil
}

// lnurlEndpoint builds the well-known LNURL-pay URL for a Lightning address.
func lnurlEndpoint(user, domain string) string {
	return fmt.Sprintf("https://%s/.well-known/lnurlp/%s", domain, user)
}

// resolveSafeHost blocks LNURL endpoints that resolve to private, loopback,
// or link-local addresses, preventing a zap target from being used to
// probe internal network services.
func resolveSafeHost(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("zap: parse endpoint url: %w", err)
	}
	host := u.Hostname()
	ips, err := net.LookupIP(host)
	if err != nil {
		return fmt.Errorf("zap: resolve endpoint host: %w", err)
	}
	for _, ip := range ips {
		if isDisallowedZapIP(ip) {
			return ErrZapUnsafeEndpoint
		}
	}
	return nil
}

func isDisallowedZapIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsPrivate() || ip.IsUnspecified()
}

// FetchLNURLPayResponse performs step 2 (resolve) and the IP-safety check
// of the zap pipeline.
func FetchLNURLPayResponse(lightningAddress string) (*LNURLPayResponse, error) {
	user, domain, err := ValidateLightningAddress(lightningAddress)
	if err != nil {
		return nil, err
	}
	endpoint := lnurlEndpoint(user, domain)
	if err := resolveSafeHost(endpoint); err != nil {
		return nil, err
	}

	resp, err := zapHTTPClient.Get(endpoint)
	if err != nil {
		return nil, zapErr("fetch lnurl endpoint", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, zapErr("read lnurl response", err)
	}

	var lp LNURLPayResponse
	if err := json.Unmarshal(body, &lp); err != nil {
		return nil, zapErr("decode lnurl response", err)
	}
	if lp.Callback == "" || lp.Metadata == "" || lp.MinSendable == 0 || lp.MaxSendable == 0 {
		return nil, ErrZapBadLNURLResponse
	}
	return &lp, nil
}

// BuildZapRequest constructs and signs the kind-9734 zap request event that
// accompanies a zap payment, per NIP-57.
func BuildZapRequest(identity *NostrIdentity, recipientPubkeyHex string, eventID string, relays []string, amountMsat uint64, comment string, now int64) (*Event, error) {
	tags := []Tag{
		{"p", recipientPubkeyHex},
		{"relays"},
		{"amount", fmt.Sprintf("%d", amountMsat)},
	}
	tags[1] = append(Tag{"relays"}, relays...)
	if eventID != "" {
		tags = append(tags, Tag{"e", eventID})
	}
	return BuildEvent(identity, KindZapRequest, tags, comment, now)
}

// descriptionHash returns the sha256 of the zap request event's canonical
// serialization, the value the invoice's description hash must match.
func descriptionHash(zapRequest *Event) ([32]byte, error) {
	raw, err := CanonicalEventSerialization(zapRequest.PubKey, zapRequest.CreatedAt, zapRequest.Kind, tagsToStrings(zapRequest.Tags), zapRequest.Content)
	if err != nil {
		return [32]byte{}, zapErr("serialize zap request for hash", err)
	}
	return sha256.Sum256(raw), nil
}

// RequestZapInvoice performs the callback fetch (step 6) of the pipeline:
// given a resolved LNURL-pay response and a signed zap request, it asks
// the callback for an invoice for amountMsat.
func RequestZapInvoice(lp *LNURLPayResponse, zapRequest *Event, amountMsat uint64) (*Bolt11Invoice, error) {
	if amountMsat < lp.MinSendable || amountMsat > lp.MaxSendable {
		return nil, ErrZapAmountOutsideBounds
	}
	if err := resolveSafeHost(lp.Callback); err != nil {
		return nil, err
	}

	zrJSON, err := json.Marshal(zapRequest)
	if err != nil {
		return nil, zapErr("marshal zap request", err)
	}
	q := url.Values{}
	q.Set("amount", fmt.Sprintf("%d", amountMsat))
	q.Set("nostr", string(zrJSON))
	callbackURL := lp.Callback
	if strings.Contains(callbackURL, "?") {
		callbackURL += "&" + q.Encode()
	} else {
		callbackURL += "?" + q.Encode()
	}

	resp, err := zapHTTPClient.Get(callbackURL)
	if err != nil {
		return nil, zapErr("fetch invoice callback", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, zapErr("read invoice callback response", err)
	}

	var cb struct {
		PR     string `json:"pr"`
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, zapErr("decode invoice callback response", err)
	}
	if cb.Status == "ERROR" {
		return nil, zapErr("invoice callback", errors.New(cb.Reason))
	}
	if cb.PR == "" {
		return nil, zapErr("invoice callback", errors.New("missing pr field"))
	}

	inv, err := ParseBolt11(cb.PR)
	if err != nil {
		return nil, zapErr("parse invoice", err)
	}
	return inv, nil
}

// VerifyZapInvoice performs steps 7-8: the three-way amount check (request
// == invoice == what the caller intended to send) and the description-hash
// check binding the invoice to this specific zap request.
func VerifyZapInvoice(inv *Bolt11Invoice, zapRequest *Event, requestedAmountMsat uint64) error {
	if err := ValidateBolt11(inv); err != nil {
		return zapErr("validate invoice", err)
	}
	if inv.AmountMsat == nil || *inv.AmountMsat != requestedAmountMsat {
		return ErrZapInvoiceAmountMismatch
	}
	if tagAmount, ok := zapRequest.TagValue("amount"); !ok || tagAmount != fmt.Sprintf("%d", requestedAmountMsat) {
		return ErrZapInvoiceAmountMismatch
	}

	wantHash, err := descriptionHash(zapRequest)
	if err != nil {
		return err
	}
	gotHash, ok := inv.DescriptionHash()
	if !ok || hex.EncodeToString(gotHash) != hex.EncodeToString(wantHash[:]) {
		return ErrZapDescriptionHashMismatch
	}
	return nil
}

// walletURISchemes is the preference order used to build a wallet-openable
// payment URI once an invoice has been validated.
var walletURISchemes = []string{"lightning:", "bitcoin:"}

// WalletURI builds the URI a client opens to hand the invoice to the
// user's wallet, preferring the "lightning:" scheme.
func WalletURI(inv *Bolt11Invoice) string {
	return walletURISchemes[0] + inv.Raw
}

// ValidateZapReceipt checks a kind-9735 zap receipt against the zap request
// it's meant to settle: the receipt must carry a "bolt11" tag, a
// "description" tag echoing the original zap request, and its bolt11 must
// satisfy the same invariants a fresh invoice would.
func ValidateZapReceipt(receipt *Event, zapRequest *Event) error {
	if receipt.Kind != KindZapReceipt {
		return zapErr("validate receipt", fmt.Errorf("expected kind %d, got %d", KindZapReceipt, receipt.Kind))
	}
	if err := receipt.Verify(); err != nil {
		return zapErr("validate receipt", err)
	}
	bolt11Tag, ok := receipt.TagValue("bolt11")
	if !ok {
		return zapErr("validate receipt", errors.New("missing bolt11 tag"))
	}
	inv, err := ParseBolt11(bolt11Tag)
	if err != nil {
		return zapErr("validate receipt", err)
	}
	if err := ValidateBolt11(inv); err != nil {
		return zapErr("validate receipt", err)
	}

	descTag, ok := receipt.TagValue("description")
	if !ok {
		return zapErr("validate receipt", errors.New("missing description tag"))
	}
	var echoed Event
	if err := json.Unmarshal([]byte(descTag), &echoed); err != nil {
		return zapErr("validate receipt: decode echoed zap request", err)
	}
	if echoed.ID != zapRequest.ID {
		return zapErr("validate receipt", errors.New("description tag does not echo the original zap request"))
	}
	MetricZapsCompleted.Inc()
	return nil
}
