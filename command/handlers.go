package command

import (
	"encoding/json"
	"time"

	"github.com/hexdb-io/hexdb/crypto/codec"
	"github.com/hexdb-io/hexdb/internal/metrics"
	"github.com/hexdb-io/hexdb/session"
	"github.com/hexdb-io/hexdb/storage/sqlast"
)

// handleInitializeEncryption negotiates a fresh AES-256-GCM channel: it
// mints a key, a nonce, and a new encrypted session, then RSA-encrypts the
// handshake payload with the server's private key via
// codec.EncryptWithPrivateKey so a client holding only the public key can
// recover it.
func (d *Dispatcher) handleInitializeEncryption(req *request) response {
	key, err := codec.GenerateAESKey()
	if err != nil {
		return failWith(errUnexpectedReason())
	}
	nonce, err := codec.GenerateNonce()
	if err != nil {
		return failWith(errUnexpectedReason())
	}

	sess := d.Sessions.Create("", &session.Encryption{AESKey: key, Nonce: nonce})

	payload := "aes" + kvDelimiter + codec.EncodeBinaryHex(key) +
		kvSeparator + "nonce" + kvDelimiter + codec.EncodeBinaryHex(nonce) +
		kvSeparator + "session_id" + kvDelimiter + sess.ID

	start := time.Now()
	ciphertext, err := codec.EncryptWithPrivateKey(d.Keys.Private, []byte(payload))
	if err != nil {
		metrics.CryptoErrors.WithLabelValues("encrypt").Inc()
		d.Sessions.Delete(sess.ID)
		return failWith(errUnexpectedReason())
	}
	metrics.CryptoOperations.WithLabelValues("encrypt", "rsa-4096").Inc()
	metrics.CryptoOperationDuration.WithLabelValues("encrypt", "rsa-4096").Observe(time.Since(start).Seconds())

	return response{rawReply: "OK;" + codec.EncodeBinaryHex(ciphertext)}
}

// handleRegister authenticates login/password against the user store. When
// the wire frame names an existing encrypted session, it binds that
// session's database in place (keeping its session id); otherwise it mints
// a fresh, unencrypted session.
func (d *Dispatcher) handleRegister(req *request) response {
	pairs, ok := parseBody(req.body)
	if !ok {
		return failWith(errIncorrectRequest())
	}
	login, hasLogin := lookup(pairs, "login")
	password, hasPassword := lookup(pairs, "password")
	if !hasLogin || !hasPassword {
		return failWith(errIncorrectRequest())
	}
	connectTo, _ := lookup(pairs, "connect_auto")

	if _, err := d.Users.Authenticate(login, password); err != nil {
		return failWith(errIncorrectLogin())
	}

	if connectTo != "" && !d.Engine.DatabaseExists(connectTo) {
		return failWith(errQueryFailed("Entered database doesn't exists"))
	}

	if req.session != nil && req.session.IsEncrypted() {
		if connectTo != "" {
			if err := d.Sessions.BindDatabase(req.session.ID, connectTo); err != nil {
				return failWith(errSessionMissing())
			}
			req.session.ConnectedToDatabase = connectTo
		}
		return okBound(req.session.ID)
	}

	sess := d.Sessions.Create(connectTo, nil)
	return okBound(sess.ID)
}

// handleKeepAlive touches a session's timestamp. For an unencrypted
// session the body is not key-value pairs at all — it's the bare session
// id, the one quirk this command carries.
func (d *Dispatcher) handleKeepAlive(req *request) response {
	id := req.sessionID
	if id == "" {
		id = req.body
	}
	if id == "" {
		return failWith(errIncorrectRequest())
	}
	if err := d.Sessions.Touch(id); err != nil {
		if err == session.ErrExpired {
			return failWith(errSessionExpired())
		}
		return failWith(errSessionMissing())
	}
	return okEmpty()
}

// handleDatabaseConnect binds a session to an existing database.
func (d *Dispatcher) handleDatabaseConnect(req *request) response {
	pairs, ok := parseBody(req.body)
	if !ok {
		return failWith(errIncorrectRequest())
	}
	if werr := d.ensureSession(req, pairs, "session_id"); werr != nil {
		return failWith(werr)
	}
	if werr := d.touchImplicit(req); werr != nil {
		return failWith(werr)
	}

	name, has := lookup(pairs, "database_name")
	if !has || name == "" {
		return failWith(errIncorrectRequest())
	}
	if !d.Engine.DatabaseExists(name) {
		return failWith(errQueryFailed("Entered database doesn't exists"))
	}

	if err := d.Sessions.BindDatabase(req.session.ID, name); err != nil {
		if err == session.ErrExpired {
			return failWith(errSessionExpired())
		}
		return failWith(errSessionMissing())
	}
	req.session.ConnectedToDatabase = name
	return okBound(req.session.ID)
}

// handleShow answers metadata queries: the list of databases, the tables
// in one database, or the row contents of one table.
func (d *Dispatcher) handleShow(req *request) response {
	pairs, ok := parseBody(req.body)
	if !ok {
		return failWith(errIncorrectRequest())
	}
	if werr := d.ensureSession(req, pairs, "session_id"); werr != nil {
		return failWith(werr)
	}
	if werr := d.touchImplicit(req); werr != nil {
		return failWith(werr)
	}

	what, has := lookup(pairs, "what")
	if !has {
		return failWith(errIncorrectRequest())
	}

	switch what {
	case "databases":
		names, err := d.Engine.ListDatabases()
		if err != nil {
			return failWith(errQueryFailed(err.Error()))
		}
		return d.jsonResponse(names)

	case "database_tables":
		unit, has := lookup(pairs, "unit_name")
		if !has || unit == "" {
			return failWith(errIncorrectRequest())
		}
		names, err := d.Engine.ListTables(unit)
		if err != nil {
			return failWith(errQueryFailed(err.Error()))
		}
		return d.jsonResponse(names)

	case "table_records":
		unit, has := lookup(pairs, "unit_name")
		if !has || unit == "" {
			return failWith(errIncorrectRequest())
		}
		database := req.session.ConnectedToDatabase
		if database == "" {
			return failWith(errQueryFailed("Session is not connected to any database"))
		}
		t, err := d.Engine.ReadTable(database, unit)
		if err != nil {
			return failWith(errQueryFailed(err.Error()))
		}
		return d.jsonResponse(t)

	default:
		return failWith(errIncorrectRequest())
	}
}

func (d *Dispatcher) jsonResponse(v any) response {
	data, err := json.Marshal(v)
	if err != nil {
		return failWith(errUnexpectedReason())
	}
	return okContent(string(data))
}

// handleCommand parses and executes one SQL statement against the
// session's bound database (or no database, for CREATE DATABASE).
func (d *Dispatcher) handleCommand(req *request) response {
	pairs, ok := parseBody(req.body)
	if !ok || len(pairs) == 0 {
		return failWith(errIncorrectRequest())
	}
	if werr := d.ensureSession(req, pairs, "session_id"); werr != nil {
		return failWith(werr)
	}
	if werr := d.touchImplicit(req); werr != nil {
		return failWith(werr)
	}

	sqlQuery, has := lookup(pairs, "sql_query")
	if !has {
		return failWith(errIncorrectRequest())
	}
	connectAuto, _ := lookup(pairs, "connect_auto")

	stmt, err := sqlast.Parse(sqlQuery)
	if err != nil {
		return failWith(errQueryFailed(err.Error()))
	}

	database := req.session.ConnectedToDatabase
	if cd, isCreate := stmt.(*sqlast.CreateDatabaseStmt); isCreate {
		cd.ConnectAuto = connectAuto != ""
	}

	result, execErr := d.Engine.Execute(database, stmt)
	if execErr != nil {
		return failWith(errQueryFailed(execErr.Error()))
	}

	if cd, isCreate := stmt.(*sqlast.CreateDatabaseStmt); isCreate {
		if cd.ConnectAuto {
			d.bindCurrentSession(req, cd.Name)
		}
		return okContent("Query has been performed")
	}
	if result == nil {
		return okContent("Query has been performed")
	}
	return d.jsonResponse(result)
}

// touchImplicit applies the shared keep-alive side effect that Command,
// Show, and DatabaseConnect all carry: every one of them bumps the
// session's timestamp before doing its own work, on top of whatever the
// dedicated keep-alive command does.
func (d *Dispatcher) touchImplicit(req *request) *wireError {
	if req.session == nil {
		return errSessionMissing()
	}
	if err := d.Sessions.Touch(req.session.ID); err != nil {
		if err == session.ErrExpired {
			return errSessionExpired()
		}
		return errSessionMissing()
	}
	return nil
}

func (d *Dispatcher) bindCurrentSession(req *request, database string) {
	if req.session == nil {
		return
	}
	_ = d.Sessions.BindDatabase(req.session.ID, database)
	req.session.ConnectedToDatabase = database
}
