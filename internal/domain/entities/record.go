package entities

// KindImage is the only declared attachment kind the optimizer accepts.
const KindImage = "image"

// BinaryAttachment is a named binary payload carried by a record. Optional
// string fields are empty when absent.
type BinaryAttachment struct {
	ID            string `json:"id,omitempty"` // storage key, when the bytes live in a BinaryStorage
	Data          []byte `json:"-"`
	FileType      string `json:"fileType,omitempty"` // declared kind, e.g. "image"
	FileName      string `json:"fileName,omitempty"`
	FileExtension string `json:"fileExtension,omitempty"`
	MimeType      string `json:"mimeType,omitempty"`
	FileSize      int64  `json:"fileSize,omitempty"`
}

// InputRecord is one unit of input data flowing through a batch. It is never
// modified by the optimizer.
type InputRecord struct {
	JSON   map[string]any               `json:"json,omitempty"`
	Binary map[string]*BinaryAttachment `json:"binary,omitempty"`
}

// OutputRecord is produced once per encoded format, or once per failed record
// when failures are reported inline.
type OutputRecord struct {
	PairedItem int                          `json:"pairedItem"`
	JSON       map[string]any               `json:"json"`
	Binary     map[string]*BinaryAttachment `json:"binary,omitempty"`
}

// IsError reports whether the record is an inline failure entry.
func (o OutputRecord) IsError() bool {
	if o.Binary != nil {
		return false
	}
	_, ok := o.JSON["error"]
	return ok
}

// OutputChannelSet holds the parallel output sequences of one run. Its length
// is fixed before the first record is processed.
type OutputChannelSet [][]OutputRecord

func NewOutputChannelSet(channels int) OutputChannelSet {
	set := make(OutputChannelSet, channels)
	for i := range set {
		set[i] = []OutputRecord{}
	}
	return set
}
