// Command transsrt is the TransSRT command line interface.
//
// It translates subtitle files locally or through a running daemon, runs the
// daemon itself (serve, start, stop), and inspects job history and logs.
package main
