package command

import "fmt"

// Kind identifies which external server command a Spec describes. It is used
// as the process label in supervision errors and log lines.
type Kind int

const (
	// KindInitDB is the initialize-database command (initdb).
	KindInitDB Kind = iota
	// KindStart is the start-server command (pg_ctl start).
	KindStart
	// KindStop is the stop-server command (pg_ctl stop).
	KindStop
)

// String returns the short process label for the kind.
func (k Kind) String() string {
	switch k {
	case KindInitDB:
		return "initdb"
	case KindStart:
		return "start"
	case KindStop:
		return "stop"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// AuthMethod selects the authentication mode initdb configures for
// host connections.
type AuthMethod int

const (
	// AuthPlain uses plain-text password authentication.
	AuthPlain AuthMethod = iota
	// AuthMD5 uses md5 password authentication.
	AuthMD5
	// AuthScramSHA256 uses scram-sha-256 authentication. Requires server
	// major version >= 11; the lifecycle controller validates this, not
	// the builder.
	AuthScramSHA256
)

// ScramMinMajorVersion is the first PostgreSQL major version that supports
// scram-sha-256 authentication.
const ScramMinMajorVersion = 11

// arg returns the value passed to initdb's -A flag.
func (m AuthMethod) arg() string {
	switch m {
	case AuthPlain:
		return "password"
	case AuthMD5:
		return "md5"
	case AuthScramSHA256:
		return "scram-sha-256"
	default:
		return "password"
	}
}

// String returns the initdb flag value for the method.
func (m AuthMethod) String() string {
	return m.arg()
}

// Valid reports whether m is a recognized authentication method.
func (m AuthMethod) Valid() bool {
	return m >= AuthPlain && m <= AuthScramSHA256
}

// Spec is a fully built external command: executable path, arguments, and
// whether the supervisor should capture standard output. It is inert until
// handed to the supervisor.
type Spec struct {
	Kind Kind
	Path string
	Args []string

	// PipeStdout controls stdout capture. It is false only for the start
	// command: pg_ctl start does not terminate while its standard output is
	// piped, so the supervisor must leave stdout unconsumed and rely on the
	// command's own wait-for-ready flag instead.
	PipeStdout bool
}

// Builder constructs command Specs from one instance's resolved paths and
// settings. All fields are required except Port, which only the start
// command consumes.
type Builder struct {
	PgCtl        string // pg_ctl executable path
	InitDB       string // initdb executable path
	DataDir      string // database data directory
	PasswordFile string // credentials file for initdb --pwfile
	User         string // database superuser name
	Auth         AuthMethod
	Port         int
}

// InitDBCommand builds the initialize-database invocation:
//
//	initdb -A <auth> -U <user> -D <data-dir> --pwfile <password-file>
func (b Builder) InitDBCommand() Spec {
	return Spec{
		Kind: KindInitDB,
		Path: b.InitDB,
		Args: []string{
			"-A", b.Auth.arg(),
			"-U", b.User,
			"-D", b.DataDir,
			"--pwfile", b.PasswordFile,
		},
		PipeStdout: true,
	}
}

// StartCommand builds the start-server invocation:
//
//	pg_ctl -o "-F -p <port>" start -w -D <data-dir>
//
// -F disables fsync for faster startup of throwaway instances; -w makes
// pg_ctl wait until the server accepts connections before exiting.
func (b Builder) StartCommand() Spec {
	return Spec{
		Kind: KindStart,
		Path: b.PgCtl,
		Args: []string{
			"-o", fmt.Sprintf("-F -p %d", b.Port),
			"start",
			"-w",
			"-D", b.DataDir,
		},
		PipeStdout: false,
	}
}

// StopCommand builds the stop-server invocation:
//
//	pg_ctl stop -w -D <data-dir>
func (b Builder) StopCommand() Spec {
	return Spec{
		Kind: KindStop,
		Path: b.PgCtl,
		Args: []string{
			"stop",
			"-w",
			"-D", b.DataDir,
		},
		PipeStdout: true,
	}
}
