// Package transport connects the controller to its byte link.
//
// Links are addressed by URL:
//
//	serial:///dev/ttyACM0?baud=115200
//	tcp://:7070
//	ws://:8080/vc
//
// The controller side uses Listen and a Stream, which turns a blocking
// link into the non-blocking ByteSource the control loop needs. Clients
// use Dial.
package transport
