// Package gateway is the client for the remote messaging API.
//
// Every operation is a form-encoded POST to a single endpoint, selected by the
// "method" field. Outgoing payloads are filtered through a per-method key
// whitelist before transmission.
package gateway

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"hooknotify_backend/platform/apperr"
	"hooknotify_backend/platform/logger"
)

const (
	MethodSendMessage    = "sendmessage"
	MethodAddContact     = "addcontact"
	MethodListMessages   = "listmessages"
	MethodConsultMessage = "consultmessage"
	MethodAuthAPI        = "authapi"

	// DefaultMessage is sent when a message body is empty.
	DefaultMessage = "Mensagem de Teste"
	// DefaultContactName labels contacts added without a name.
	DefaultContactName = "Importado"

	maxBodyBytes = 1 << 20

	opPrefix = "gateway."
)

var whitelists = map[string]map[string]struct{}{
	MethodSendMessage:    keySet("api", "secret", "method", "phone", "message", "document", "filetype"),
	MethodAddContact:     keySet("api", "secret", "method", "phone", "name", "group"),
	MethodListMessages:   keySet("api", "secret", "method"),
	MethodConsultMessage: keySet("api", "secret", "method", "messageid"),
	MethodAuthAPI:        keySet("api", "secret", "method"),
}

// requiredFields are the caller fields a method cannot be sent without.
var requiredFields = map[string][]string{
	MethodSendMessage:    {"phone"},
	MethodAddContact:     {"phone"},
	MethodConsultMessage: {"messageid"},
}

func keySet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Attachment is a document sent along with a message.
type Attachment struct {
	Document string
	FileType string
}

// Message is a sendmessage request. Extra carries caller fields; only
// whitelisted keys survive and the client's own fields take precedence.
type Message struct {
	Phones     []string
	Text       string
	Attachment *Attachment
	Extra      map[string]string
}

// Client talks to the gateway with one set of credentials.
// It remembers the result of the last call made.
type Client struct {
	endpoint string
	api      string
	secret   string
	http     *http.Client
	log      *logger.Logger

	mu   sync.Mutex
	last Result
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport used for gateway calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each call. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
		}
	}
}

// NewClient creates a client. Missing credentials are not rejected here:
// every call checks its preconditions before doing any I/O.
func NewClient(endpoint, api, secret string, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSpace(endpoint),
		api:      strings.TrimSpace(api),
		secret:   strings.TrimSpace(secret),
		http:     &http.Client{},
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result returns the result of the most recent call.
func (c *Client) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Authenticate validates the credentials and returns the account snapshot.
func (c *Client) Authenticate(ctx context.Context) (Result, error) {
	return c.call(ctx, MethodAuthAPI, nil)
}

// SendMessage sends msg.Text to every phone in order, one request each.
// A failed recipient does not stop the others; the returned slice has one
// result per phone. Only a precondition violation or cancellation of ctx
// returns an error.
func (c *Client) SendMessage(ctx context.Context, msg Message) ([]Result, error) {
	const op = opPrefix + "send_message"

	if len(msg.Phones) == 0 {
		return nil, apperr.Precondition("no recipients").WithOp(op)
	}

	text := msg.Text
	if strings.TrimSpace(text) == "" {
		text = DefaultMessage
	}

	results := make([]Result, 0, len(msg.Phones))
	for _, phone := range msg.Phones {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		fields := make(map[string]string, len(msg.Extra)+4)
		for k, v := range msg.Extra {
			fields[k] = v
		}
		if msg.Attachment != nil && msg.Attachment.Document != "" {
			fields["document"] = msg.Attachment.Document
			fields["filetype"] = msg.Attachment.FileType
		}
		fields["phone"] = phone
		fields["message"] = text

		res, err := c.call(ctx, MethodSendMessage, fields)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// AddContact registers phone in the gateway address book. group is sent only when set.
func (c *Client) AddContact(ctx context.Context, phone, name string, group *int) (Result, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultContactName
	}
	fields := map[string]string{"phone": phone, "name": name}
	if group != nil {
		fields["group"] = strconv.Itoa(*group)
	}
	return c.call(ctx, MethodAddContact, fields)
}

// ListMessages lists messages known to the gateway.
func (c *Client) ListMessages(ctx context.Context) (Result, error) {
	return c.call(ctx, MethodListMessages, nil)
}

// ConsultMessage queries the delivery status of a message.
func (c *Client) ConsultMessage(ctx context.Context, messageID int64) (Result, error) {
	return c.call(ctx, MethodConsultMessage, map[string]string{
		"messageid": strconv.FormatInt(messageID, 10),
	})
}

// Payload builds the exact form body a call would transmit.
func (c *Client) Payload(method string, fields map[string]string) url.Values {
	allowed := whitelists[method]
	form := url.Values{}
	for k, v := range fields {
		if _, ok := allowed[k]; ok {
			form.Set(k, v)
		}
	}
	form.Set("api", c.api)
	form.Set("secret", c.secret)
	form.Set("method", method)
	return form
}

// checkPreconditions runs on the caller's fields, before the credentials and
// method are merged in.
func (c *Client) checkPreconditions(op, method string, fields map[string]string) error {
	switch {
	case c.api == "":
		return apperr.Precondition("gateway api key is not set").WithOp(op)
	case c.secret == "":
		return apperr.Precondition("gateway secret is not set").WithOp(op)
	case c.endpoint == "":
		return apperr.Precondition("gateway endpoint is not set").WithOp(op)
	}
	for _, key := range requiredFields[method] {
		if strings.TrimSpace(fields[key]) == "" {
			return apperr.Precondition("gateway payload is missing " + key).WithOp(op)
		}
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, fields map[string]string) (Result, error) {
	op := opPrefix + method
	if _, ok := whitelists[method]; !ok {
		return Result{}, apperr.Precondition("unknown gateway method " + method).WithOp(op)
	}

	if err := c.checkPreconditions(op, method, fields); err != nil {
		return Result{}, err
	}
	payload := c.Payload(method, fields)

	res, err := c.post(ctx, method, payload)
	if err != nil {
		return Result{}, err
	}

	c.mu.Lock()
	c.last = res
	c.mu.Unlock()
	return res, nil
}

func (c *Client) post(ctx context.Context, method string, payload url.Values) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindPrecondition, "invalid gateway endpoint", err).WithOp(opPrefix + method)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		c.logCall(method, 0, start, err)
		return newTransportError(err.Error(), 0), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.logCall(method, resp.StatusCode, start, err)
		return newTransportError(err.Error(), resp.StatusCode), nil
	}
	c.logCall(method, resp.StatusCode, start, nil)

	if resp.StatusCode >= http.StatusBadRequest {
		return newTransportError(string(body), resp.StatusCode), nil
	}
	return decodeBody(body, resp.StatusCode), nil
}

func (c *Client) logCall(method string, status int, start time.Time, err error) {
	if c.log == nil {
		return
	}
	c.log.GatewayCall(method, status, time.Since(start), err)
}
