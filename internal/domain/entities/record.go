package entities

import (
	"bytes"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is the persisted shape of an Event.
type Record struct {
	Hoster        int64         `json:"hoster"`
	Members       MemberList    `json:"members"`
	Event         string        `json:"event"`
	MaxSlots      *int          `json:"max_slots"`
	Approver      *int64        `json:"approver"`
	Message       *int64        `json:"message"`
	Channel       *int64        `json:"channel"`
	Guild         int64         `json:"guild"`
	Maybe         []int64       `json:"maybe"`
	Start         *int64        `json:"start"`
	SelectOptions SelectOptions `json:"select_options"`
}

// MemberList decodes both plain ids and the legacy [id, extra] pairs,
// keeping only the id.
type MemberList []int64

func (m *MemberList) UnmarshalJSON(data []byte) error {
	iter := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowIterator(data)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnIterator(iter)

	if iter.WhatIsNext() == jsoniter.NilValue {
		iter.Skip()
		*m = nil
		return iter.Error
	}
	out := MemberList{}
	iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
		switch it.WhatIsNext() {
		case jsoniter.ArrayValue:
			first := true
			it.ReadArrayCB(func(inner *jsoniter.Iterator) bool {
				if first {
					out = append(out, inner.ReadInt64())
					first = false
				} else {
					inner.Skip()
				}
				return true
			})
		default:
			out = append(out, it.ReadInt64())
		}
		return it.Error == nil
	})
	if iter.Error != nil {
		return fmt.Errorf("decode members: %w", iter.Error)
	}
	*m = out
	return nil
}

// SelectOptions is a JSON object of label -> icon whose key order survives
// a decode/encode cycle.
type SelectOptions []SelectOption

func (o SelectOptions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(opt.Label)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(opt.Icon)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *SelectOptions) UnmarshalJSON(data []byte) error {
	iter := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowIterator(data)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnIterator(iter)

	out := SelectOptions{}
	if iter.WhatIsNext() == jsoniter.NilValue {
		iter.Skip()
		*o = out
		return iter.Error
	}
	iter.ReadObjectCB(func(it *jsoniter.Iterator, label string) bool {
		icon := ""
		if it.WhatIsNext() == jsoniter.NilValue {
			it.Skip()
		} else {
			icon = it.ReadString()
		}
		out = append(out, SelectOption{Label: label, Icon: icon})
		return it.Error == nil
	})
	if iter.Error != nil {
		return fmt.Errorf("decode select_options: %w", iter.Error)
	}
	*o = out
	return nil
}

// ToRecord converts e to its persisted shape.
func (e *Event) ToRecord() Record {
	r := Record{
		Hoster:        e.Hoster,
		Members:       append(MemberList{}, e.Members...),
		Event:         e.Description,
		MaxSlots:      e.MaxSlots,
		Approver:      e.Approver,
		Guild:         e.GuildID,
		Maybe:         append([]int64{}, e.Maybe...),
		SelectOptions: append(SelectOptions{}, e.SelectOptions...),
	}
	if e.MessageID != 0 {
		id := e.MessageID
		r.Message = &id
	}
	if e.ChannelID != 0 {
		id := e.ChannelID
		r.Channel = &id
	}
	if e.Start != nil {
		ts := e.Start.Unix()
		r.Start = &ts
	}
	return r
}

// FromRecord rebuilds an Event from its persisted shape.
func FromRecord(r Record) *Event {
	e := &Event{
		GuildID:       r.Guild,
		Hoster:        r.Hoster,
		Members:       append([]int64{}, r.Members...),
		Maybe:         append([]int64{}, r.Maybe...),
		Description:   r.Event,
		MaxSlots:      r.MaxSlots,
		Approver:      r.Approver,
		SelectOptions: append([]SelectOption{}, r.SelectOptions...),
	}
	if r.Message != nil {
		e.MessageID = *r.Message
	}
	if r.Channel != nil {
		e.ChannelID = *r.Channel
	}
	if r.Start != nil {
		t := time.Unix(*r.Start, 0).UTC()
		e.Start = &t
	}
	return e
}

// MarshalRecord encodes e for the event store.
func MarshalRecord(e *Event) ([]byte, error) {
	data, err := json.Marshal(e.ToRecord())
	if err != nil {
		return nil, fmt.Errorf("marshal event %d: %w", e.Hoster, err)
	}
	return data, nil
}

// UnmarshalRecord decodes a stored event record.
func UnmarshalRecord(data []byte) (*Event, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal event record: %w", err)
	}
	return FromRecord(r), nil
}
