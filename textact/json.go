package textact

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/histree-dev/histree"
	"github.com/histree-dev/histree/histjson"
)

// Action kinds used with histjson.
const (
	KindInsert  = "text.insert"
	KindDelete  = "text.delete"
	KindReplace = "text.replace"
)

// Register installs decoders for all text actions.
func Register(rg *histjson.Registry[*Buffer]) {
	rg.Register(KindInsert, decodeInsert)
	rg.Register(KindDelete, decodeDelete)
	rg.Register(KindReplace, decodeReplace)
}

func (a *Insert) Kind() string { return KindInsert }

func (a *Insert) MarshalAction() ([]byte, error) {
	out := []byte(`{}`)
	out, err := sjson.SetBytes(out, "offset", a.Offset)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(out, "text", a.Text)
}

func decodeInsert(data gjson.Result) (histree.Action[*Buffer], error) {
	return &Insert{
		Offset: int(data.Get("offset").Int()),
		Text:   data.Get("text").String(),
	}, nil
}

func (a *Delete) Kind() string { return KindDelete }

// MarshalAction persists the removed text as well, so an applied delete
// can still be undone after a reload.
func (a *Delete) MarshalAction() ([]byte, error) {
	out := []byte(`{}`)
	var err error
	for _, kv := range []struct {
		path  string
		value any
	}{
		{"offset", a.Offset},
		{"length", a.Length},
		{"deleted", a.deleted},
	} {
		if out, err = sjson.SetBytes(out, kv.path, kv.value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeDelete(data gjson.Result) (histree.Action[*Buffer], error) {
	return &Delete{
		Offset:  int(data.Get("offset").Int()),
		Length:  int(data.Get("length").Int()),
		deleted: data.Get("deleted").String(),
	}, nil
}

func (a *Replace) Kind() string { return KindReplace }

func (a *Replace) MarshalAction() ([]byte, error) {
	out := []byte(`{}`)
	var err error
	for _, kv := range []struct {
		path  string
		value any
	}{
		{"offset", a.Offset},
		{"length", a.Length},
		{"text", a.Text},
		{"replaced", a.replaced},
	} {
		if out, err = sjson.SetBytes(out, kv.path, kv.value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeReplace(data gjson.Result) (histree.Action[*Buffer], error) {
	return &Replace{
		Offset:   int(data.Get("offset").Int()),
		Length:   int(data.Get("length").Int()),
		Text:     data.Get("text").String(),
		replaced: data.Get("replaced").String(),
	}, nil
}
