package midi

// Parser turns a MIDI byte stream into messages.
//
// It follows the MIDI 1.0 stream rules: channel messages may use running
// status, real-time bytes may appear anywhere (even inside another message)
// and are emitted immediately, system common messages cancel running status,
// and data bytes with no status to attach to are dropped. Active sensing is
// consumed silently so keep-alive traffic never reaches a signal map.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	status byte
	need   int
	buf    []byte
	sysex  []byte
	inSys  bool
}

// Feed consumes one byte and returns a message when one is complete.
func (p *Parser) Feed(c byte) (Message, bool) {
	switch {
	case c >= 0xF8:
		return p.realtime(c)
	case c == 0xF0:
		p.status, p.need, p.buf = 0, 0, p.buf[:0]
		p.inSys = true
		p.sysex = p.sysex[:0]
		return Message{}, false
	case c == statusSysexEnd:
		if !p.inSys {
			return Message{}, false
		}
		p.inSys = false
		data := make([]byte, len(p.sysex))
		copy(data, p.sysex)
		return Message{Kind: Sysex, Data: data, Velocity: DefaultVelocity}, true
	case c >= 0x80:
		p.inSys = false
		return p.startStatus(c)
	}

	if p.inSys {
		p.sysex = append(p.sysex, c)
		return Message{}, false
	}
	if p.status == 0 {
		return Message{}, false
	}
	p.buf = append(p.buf, c)
	if len(p.buf) < p.need {
		return Message{}, false
	}
	msg := p.build()
	p.buf = p.buf[:0]
	if p.status >= 0xF0 {
		// System common messages do not support running status.
		p.status = 0
	}
	return msg, true
}

// Parse feeds every byte in b and returns the completed messages.
func (p *Parser) Parse(b []byte) []Message {
	var out []Message
	for _, c := range b {
		if msg, ok := p.Feed(c); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (p *Parser) pending() bool {
	return p.inSys || len(p.buf) > 0
}

func (*Parser) realtime(c byte) (Message, bool) {
	var kind Kind
	switch c {
	case 0xF8:
		kind = Clock
	case 0xFA:
		kind = Start
	case 0xFB:
		kind = Continue
	case 0xFC:
		kind = Stop
	case 0xFF:
		kind = Reset
	default:
		// 0xF9, 0xFD undefined; 0xFE active sensing.
		return Message{}, false
	}
	return Message{Kind: kind, Velocity: DefaultVelocity}, true
}

func (p *Parser) startStatus(c byte) (Message, bool) {
	p.buf = p.buf[:0]
	switch c & 0xF0 {
	case 0xC0, 0xD0:
		p.status, p.need = c, 1
		return Message{}, false
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		p.status, p.need = c, 2
		return Message{}, false
	}

	switch c {
	case 0xF1, 0xF3:
		p.status, p.need = c, 1
	case 0xF2:
		p.status, p.need = c, 2
	case 0xF6:
		p.status, p.need = 0, 0
		return Message{Kind: TuneRequest, Velocity: DefaultVelocity}, true
	default:
		// 0xF4, 0xF5 undefined.
		p.status, p.need = 0, 0
	}
	return Message{}, false
}

func (p *Parser) build() Message {
	msg := Message{Velocity: DefaultVelocity}
	d := p.buf
	if p.status < 0xF0 {
		msg.Channel = int(p.status & 0x0F)
	}

	switch p.status & 0xF0 {
	case 0x80:
		msg.Kind, msg.Note, msg.Velocity = NoteOff, int(d[0]), int(d[1])
	case 0x90:
		msg.Kind, msg.Note, msg.Velocity = NoteOn, int(d[0]), int(d[1])
	case 0xA0:
		msg.Kind, msg.Note, msg.Value = PolyTouch, int(d[0]), int(d[1])
	case 0xB0:
		msg.Kind, msg.Control, msg.Value = ControlChange, int(d[0]), int(d[1])
	case 0xC0:
		msg.Kind, msg.Program = ProgramChange, int(d[0])
	case 0xD0:
		msg.Kind, msg.Value = Aftertouch, int(d[0])
	case 0xE0:
		msg.Kind, msg.Pitch = Pitchwheel, (int(d[0])|int(d[1])<<7)-pitchCenter
	case 0xF0:
		switch p.status {
		case 0xF1:
			msg.Kind, msg.FrameType, msg.FrameValue = QuarterFrame, int(d[0]>>4), int(d[0]&0x0F)
		case 0xF2:
			msg.Kind, msg.Pos = SongPos, int(d[0])|int(d[1])<<7
		case 0xF3:
			msg.Kind, msg.Song = SongSelect, int(d[0])
		}
	}
	return msg
}
