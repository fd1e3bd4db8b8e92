// Package invoke runs an external runner once per example.
//
// A runner is an opaque process: it reads the example input on standard input,
// writes its answer to standard output and exits. The Invoker captures stdout,
// stderr, the exit status and the elapsed time, subject to a per-invocation
// timeout.
//
// A non-zero exit status, stderr output and a timeout are all returned as data
// in Result. Only a runner that cannot be launched at all is an error
// (*LaunchError), because then no example can be evaluated. Through a shell a
// missing executable looks like an ordinary exit status 127; CheckLaunch
// recognizes it.
package invoke
