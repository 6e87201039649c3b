package packet

// Retcode is the result code carried as the first field of every response.
type Retcode int32

const (
	RetSucc               Retcode = 0
	RetFail               Retcode = -1
	RetClientStateInvalid Retcode = 2
	RetAccountVerifyFail  Retcode = 3
	RetAlreadyOnline      Retcode = 4
	RetJoinOtherWait      Retcode = 807
)

// RetcodeBody encodes a response body consisting of a retcode only.
func RetcodeBody(code Retcode) []byte {
	w := NewWriter()
	w.WriteD(int32(code))
	return w.Bytes()
}
