package nes

// Reference:
//   https://www.nesdev.org/wiki/Controller_reading
//   https://www.nesdev.org/wiki/Standard_controller

// Controller bit assignments, 1 means pressed otherwise 0.
// bit        7     6      5     4  3    2    1  0
// button Right  Left   Down    Up Start Select B A
const (
	ButtonA      byte = 1 << 0
	ButtonB      byte = 1 << 1
	ButtonSelect byte = 1 << 2
	ButtonStart  byte = 1 << 3
	ButtonUp     byte = 1 << 4
	ButtonDown   byte = 1 << 5
	ButtonLeft   byte = 1 << 6
	ButtonRight  byte = 1 << 7
)

// Controller is one joypad port: an 8-bit button latch that the CPU reads
// serially, one button per read, after strobing.
type Controller struct {
	buttons byte
	index   byte
	strobe  byte
}

func NewController() *Controller {
	return &Controller{}
}

// Set latches the button bitmap for the next reads.
func (c *Controller) Set(buttons byte) {
	c.buttons = buttons
}

// Buttons returns the current button latch.
func (c *Controller) Buttons() byte {
	return c.buttons
}

// read shifts out the next button bit. Reads past the eighth report 1 on
// the real hardware.
func (c *Controller) read() byte {
	ret := byte(1)
	if c.index < 8 {
		ret = (c.buttons >> c.index) & 1
	}
	c.index++
	if c.strobe&1 == 1 {
		c.index = 0
	}
	return ret
}

// write writes strobe.
// - strobe bit on: the controller reports only button A on every read
// - strobe bit off: the controller cycles through all buttons
func (c *Controller) write(data byte) {
	c.strobe = data
	if c.strobe&1 == 1 {
		c.index = 0
	}
}

// ControllerState is the serializable shift state of one port.
type ControllerState struct {
	Buttons byte
	Index   byte
	Strobe  byte
}

func (c *Controller) state() ControllerState {
	return ControllerState{Buttons: c.buttons, Index: c.index, Strobe: c.strobe}
}

func (c *Controller) restore(s ControllerState) {
	c.buttons = s.Buttons
	c.index = s.Index
	c.strobe = s.Strobe
}
