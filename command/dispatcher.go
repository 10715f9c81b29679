package command

import (
	"context"
	"time"

	"github.com/hexdb-io/hexdb/auth"
	"github.com/hexdb-io/hexdb/crypto/codec"
	"github.com/hexdb-io/hexdb/crypto/keys"
	"github.com/hexdb-io/hexdb/internal/logger"
	"github.com/hexdb-io/hexdb/internal/metrics"
	"github.com/hexdb-io/hexdb/session"
	"github.com/hexdb-io/hexdb/storage"
)

// Dispatcher turns one decoded wire request line into a response line. It
// owns no transport concerns — the server package handles the outer
// Plain-hex framing and the TCP connection itself.
type Dispatcher struct {
	Sessions *session.Table
	Engine   *storage.Engine
	Users    *auth.Store
	Keys     *keys.KeyPair
}

// NewDispatcher builds a Dispatcher from the server's shared components.
func NewDispatcher(sessions *session.Table, engine *storage.Engine, users *auth.Store, kp *keys.KeyPair) *Dispatcher {
	return &Dispatcher{Sessions: sessions, Engine: engine, Users: users, Keys: kp}
}

// Handle parses and executes one request line — the Plain-hex-decoded text
// read off the wire, still containing any nested Binary-hex ciphertext —
// and returns the plaintext response line. The caller hex-encodes it. ctx
// carries the per-connection request id the caller minted for log
// correlation; once the request's session is resolved, Handle attaches its
// id too, so every log line this dispatch produces carries both.
func (d *Dispatcher) Handle(ctx context.Context, line string) string {
	start := time.Now()
	req, perr := parseRequest(line)
	if perr != nil {
		d.record("unknown", perr)
		return perr.render()
	}

	resp := d.dispatch(req)
	if req.session != nil {
		ctx = logger.WithSessionID(ctx, req.session.ID)
	}
	if resp.err != nil {
		d.record(req.command, resp.err)
		logger.GetDefaultLogger().WithContext(ctx).Debug("command failed",
			logger.String("command", req.command), logger.String("error", resp.err.Error()))
	} else {
		d.record(req.command, nil)
	}
	metrics.CommandDuration.WithLabelValues(req.command).Observe(time.Since(start).Seconds())
	return resp.render(ctx, req)
}

// dispatch resolves the request's session (decrypting its body if needed)
// and routes it to the matching command handler.
func (d *Dispatcher) dispatch(req *request) response {
	if req.command != "initializeencryption" {
		if werr := d.resolveSession(req); werr != nil {
			return failWith(werr)
		}
	}

	switch req.command {
	case "initializeencryption":
		return d.handleInitializeEncryption(req)
	case "register":
		return d.handleRegister(req)
	case "keep-alive":
		return d.handleKeepAlive(req)
	case "command":
		return d.handleCommand(req)
	case "show":
		return d.handleShow(req)
	case "databaseconnect":
		return d.handleDatabaseConnect(req)
	default:
		return failWith(errIncorrectRequest())
	}
}

func (d *Dispatcher) record(command string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.CommandsProcessed.WithLabelValues(command, status).Inc()
}

// request is one parsed request line, before the command-specific body is
// interpreted.
type request struct {
	command   string
	body      string // plaintext body: decrypted already, if the session is encrypted
	sessionID string // from wire framing, only present for encrypted sessions
	encrypted bool
	session   *session.Session // resolved only when sessionID names a live session
}

// parseRequest splits "cmd;body" or "cmd;ciphertext;session_id". It does not
// look up the session or decrypt anything; resolveSession does that.
func parseRequest(line string) (*request, *wireError) {
	parts := splitRequestLine(line)
	if len(parts) < 2 {
		return nil, errIncorrectRequest()
	}

	req := &request{command: toLowerASCII(parts[0]), body: parts[1]}
	if len(parts) == 3 {
		req.sessionID = parts[2]
	}
	return req, nil
}

func splitRequestLine(line string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(line); i++ {
		if line[i] == ';' {
			parts = append(parts, line[start:i])
			start = i + 1
		}
	}
	parts = append(parts, line[start:])
	return parts
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// resolveSession looks up req.sessionID and, if the session is encrypted,
// decrypts req.body in place. Commands that don't carry a session id in the
// wire frame (unencrypted requests) skip this; they resolve their session
// id from the body instead, per command.
func (d *Dispatcher) resolveSession(req *request) *wireError {
	if req.sessionID == "" {
		return nil
	}
	sess, err := d.Sessions.Get(req.sessionID)
	if err != nil {
		if err == session.ErrExpired {
			return errSessionExpired()
		}
		return errSessionMissing()
	}
	req.session = sess
	if sess.IsEncrypted() {
		req.encrypted = true
		start := time.Now()
		plaintext, derr := decryptBody(sess, req.body)
		if derr != nil {
			metrics.CryptoErrors.WithLabelValues("decrypt").Inc()
			return errIncorrectRequest()
		}
		metrics.CryptoOperations.WithLabelValues("decrypt", "aes-256-gcm").Inc()
		metrics.CryptoOperationDuration.WithLabelValues("decrypt", "aes-256-gcm").Observe(time.Since(start).Seconds())
		req.body = plaintext
	}
	return nil
}

// ensureSession resolves req.session for a plaintext request: req.session
// is already set for an encrypted request (resolveSession ran at wire
// level), so this only fires when the body itself must carry the session
// id, under the key named by idKey.
func (d *Dispatcher) ensureSession(req *request, pairs []kv, idKey string) *wireError {
	if req.session != nil {
		return nil
	}
	id, ok := lookup(pairs, idKey)
	if !ok || id == "" {
		return errIncorrectRequest()
	}
	sess, err := d.Sessions.Get(id)
	if err != nil {
		if err == session.ErrExpired {
			return errSessionExpired()
		}
		return errSessionMissing()
	}
	req.session = sess
	return nil
}

func decryptBody(sess *session.Session, ciphertextHex string) (string, error) {
	ciphertext, err := codec.DecodeBinaryHex(ciphertextHex)
	if err != nil {
		return "", err
	}
	plaintext, err := codec.DecryptAESGCM(sess.Encryption.AESKey, sess.Encryption.Nonce, ciphertext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// response is the outcome of one dispatched command, rendered to wire text
// by render once the caller's encryption context is known.
type response struct {
	err      *wireError
	bound    bool   // Success(true): render "OK;<session id>"
	content  string // Success(false) with a payload: render "OK;<content>"
	hasData  bool
	sessID   string
	rawReply string // set only by initializeencryption: a full response body, pre-encrypted
}

func okBound(sessionID string) response { return response{bound: true, sessID: sessionID} }
func okEmpty() response                 { return response{} }
func okContent(content string) response { return response{content: content, hasData: true} }
func failWith(e *wireError) response    { return response{err: e} }

// render produces the final wire text for resp, applying per-session
// encryption to the reply when the request arrived on an encrypted session.
func (r response) render(ctx context.Context, req *request) string {
	if r.rawReply != "" {
		return r.rawReply
	}

	var plain string
	switch {
	case r.err != nil:
		plain = r.err.render()
	case r.bound:
		plain = "OK;" + r.sessID
	case r.hasData:
		plain = "OK;" + r.content
	default:
		plain = "OK"
	}

	if req.encrypted && req.session != nil {
		start := time.Now()
		encrypted, eerr := encryptReply(req.session, plain)
		if eerr != nil {
			metrics.CryptoErrors.WithLabelValues("encrypt").Inc()
			logger.GetDefaultLogger().WithContext(ctx).Error("encrypt reply failed", logger.Err(eerr))
			return errUnexpectedReason().render()
		}
		metrics.CryptoOperations.WithLabelValues("encrypt", "aes-256-gcm").Inc()
		metrics.CryptoOperationDuration.WithLabelValues("encrypt", "aes-256-gcm").Observe(time.Since(start).Seconds())
		return encrypted
	}
	return plain
}

// encryptReply seals plain under the session's AES key, rotating the
// session's nonce first: each encrypted reply uses a fresh CSPRNG nonce
// rather than reusing the key's original handshake nonce. The new nonce
// travels with the ciphertext as a second Binary-hex field so the client
// can track it without re-running the handshake.
func encryptReply(sess *session.Session, plain string) (string, error) {
	nonce, err := codec.GenerateNonce()
	if err != nil {
		return "", err
	}
	ciphertext, err := codec.EncryptAESGCM(sess.Encryption.AESKey, nonce, []byte(plain))
	if err != nil {
		return "", err
	}
	sess.Encryption.Nonce = nonce
	return codec.EncodeBinaryHex(ciphertext) + ";" + codec.EncodeBinaryHex(nonce), nil
}
