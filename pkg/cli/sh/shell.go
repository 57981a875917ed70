package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/robocar/pkg/client"
	fx "github.com/robotalks/robocar/pkg/framework"
	"github.com/robotalks/robocar/pkg/vc"
)

// CommandTimeout bounds the wait for a reply.
const CommandTimeout = time.Second

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *Config
	Conn   *Conn
}

// Conn is a live connection to a controller.
type Conn struct {
	URL       string
	Client    *client.Client
	Keepalive *client.Keepalive
	Cancel    func()

	holding      bool
	lastThrottle string
	runner       *fx.Runner
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&SendCmd,
		&ResetCmd,
		&ThrottleCmd,
		&SteerCmd,
		&TimeoutCmd,
		&CeilingCmd,
		&InfoCmd,
		&HoldCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context, conn *Conn)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		conn := ShellFrom(c).Conn
		if conn == nil {
			c.Err(client.ErrNotConnected)
			return
		}
		fn(c, conn)
	}
}

// Connect dials a controller link.
func (s *Shell) Connect(linkURL string) error {
	v, err := vc.VariantByName(s.Config.Variant)
	if err != nil {
		return err
	}
	cli, err := client.Dial(linkURL, v)
	if err != nil {
		return err
	}
	s.Disconnect()
	conn := &Conn{
		URL:       linkURL,
		Client:    cli,
		Keepalive: client.NewKeepalive(cli),
	}
	var ctx context.Context
	ctx, conn.Cancel = context.WithCancel(context.Background())
	conn.runner = fx.NewRunnerWith(ctx).Go(fx.NamedRun("client", cli), conn.Keepalive)
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", linkURL))
	return nil
}

// Disconnect disconnects current controller.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Cancel()
		s.Conn.Client.Close()
		s.Conn.runner.Wait()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Exec sends a line and prints the reply.
func (s *Shell) Exec(c *ishell.Context, conn *Conn, line string) (client.Reply, error) {
	ctx, cancel := context.WithTimeout(context.Background(), CommandTimeout)
	defer cancel()
	reply, err := conn.Client.Exec(ctx, line)
	if reply.Err != nil {
		c.Err(reply.Err)
		return reply, err
	}
	if s.OutputJSON {
		s.printJSON(c, &replyOutput{Line: line, Reply: reply.String(), Result: reply.Code.String(), Lines: reply.Lines})
		return reply, err
	}
	for _, l := range reply.Lines {
		c.Println(l)
	}
	if err != nil {
		c.Err(err)
		return reply, err
	}
	c.Println(reply.String())
	return reply, nil
}

type replyOutput struct {
	Line   string   `json:"line"`
	Reply  string   `json:"reply"`
	Result string   `json:"result"`
	Lines  []string `json:"lines,omitempty"`
}

func (s *Shell) printJSON(c *ishell.Context, v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.Config.LinkURL != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.LinkURL)
		}
		if err := s.Connect(s.Config.LinkURL); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.LinkURL, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func argLine(verb vc.Verb, c *ishell.Context) (string, error) {
	if len(c.Args) != 1 {
		return "", fmt.Errorf("one argument expected")
	}
	return verb.String() + c.Args[0], nil
}

func verbCmd(verb vc.Verb, after func(*Conn, string, client.Reply)) func(c *ishell.Context) {
	return MustBeConnected(func(c *ishell.Context, conn *Conn) {
		line, err := argLine(verb, c)
		if err != nil {
			c.Err(err)
			return
		}
		reply, err := ShellFrom(c).Exec(c, conn, line)
		if err == nil && after != nil {
			after(conn, line, reply)
		}
	})
}

var (
	// ConnectCmd connects a controller.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "URL",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			linkURL := s.Config.LinkURL
			if len(c.Args) > 0 {
				linkURL = c.Args[0]
			}
			if linkURL == "" {
				c.Err(fmt.Errorf("link URL expected"))
				return
			}
			if err := s.Connect(linkURL); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current controller.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// SendCmd sends a raw command line.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "LINE",
		Func: MustBeConnected(func(c *ishell.Context, conn *Conn) {
			ShellFrom(c).Exec(c, conn, strings.Join(c.Args, " "))
		}),
	}

	// ResetCmd enables motion.
	ResetCmd = ishell.Cmd{
		Name:    "reset",
		Aliases: []string{"r"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context, conn *Conn) {
			ShellFrom(c).Exec(c, conn, vc.VerbReset.String())
		}),
	}

	// ThrottleCmd sets throttle.
	ThrottleCmd = ishell.Cmd{
		Name:    "throttle",
		Aliases: []string{"t"},
		Help:    "VALUE",
		Func: verbCmd(vc.VerbThrottle, func(conn *Conn, line string, _ client.Reply) {
			conn.lastThrottle = line
			if conn.holding {
				conn.Keepalive.Hold(line)
			}
		}),
	}

	// SteerCmd sets steering.
	SteerCmd = ishell.Cmd{
		Name:    "steer",
		Aliases: []string{"s"},
		Help:    "DEGREES",
		Func:    verbCmd(vc.VerbSteer, nil),
	}

	// TimeoutCmd sets the watchdog timeout.
	TimeoutCmd = ishell.Cmd{
		Name: "timeout",
		Help: "MS",
		Func: verbCmd(vc.VerbTimeout, nil),
	}

	// CeilingCmd sets the throttle ceiling.
	CeilingCmd = ishell.Cmd{
		Name: "ceiling",
		Help: "VALUE",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			v, err := vc.VariantByName(s.Config.Variant)
			if err != nil {
				c.Err(err)
				return
			}
			verbCmd(v.CeilingVerb, nil)(c)
		},
	}

	// InfoCmd queries the status.
	InfoCmd = ishell.Cmd{
		Name:    "info",
		Aliases: []string{"i"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context, conn *Conn) {
			s := ShellFrom(c)
			ctx, cancel := context.WithTimeout(context.Background(), CommandTimeout)
			defer cancel()
			st, err := conn.Client.Info(ctx)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				s.printJSON(c, st)
				return
			}
			c.Println(st.String())
		}),
	}

	// HoldCmd repeats the last throttle command to keep the watchdog
	// from stopping the vehicle.
	HoldCmd = ishell.Cmd{
		Name: "hold",
		Help: "MS|off",
		Func: MustBeConnected(func(c *ishell.Context, conn *Conn) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("MS or off expected"))
				return
			}
			if c.Args[0] == "off" {
				conn.holding = false
				conn.Keepalive.Release()
				return
			}
			ms, err := strconv.ParseUint(c.Args[0], 10, 32)
			if err != nil || ms == 0 {
				c.Err(fmt.Errorf("invalid interval %q", c.Args[0]))
				return
			}
			conn.holding = true
			conn.Keepalive.SetInterval(time.Duration(ms) * time.Millisecond)
			if conn.lastThrottle != "" {
				conn.Keepalive.Hold(conn.lastThrottle)
			}
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(NewConfig()).Run(flag.Args()...)
}
