package mapper

import (
	"image-optimizer/internal/domain/dto"
	"image-optimizer/internal/domain/entities"
)

// BinaryURL is the API path a stored binary is served from.
func BinaryURL(id string) string {
	if id == "" {
		return ""
	}
	return "/api/v1/binary/" + id
}

func AttachmentToDTO(a *entities.BinaryAttachment) dto.BinaryDTO {
	return dto.BinaryDTO{
		ID:            a.ID,
		FileName:      a.FileName,
		FileExtension: a.FileExtension,
		MimeType:      a.MimeType,
		FileSize:      a.FileSize,
		URL:           BinaryURL(a.ID),
	}
}

func ChannelsToDTO(channels entities.OutputChannelSet) [][]dto.OutputRecordDTO {
	out := make([][]dto.OutputRecordDTO, len(channels))
	for i, records := range channels {
		out[i] = make([]dto.OutputRecordDTO, 0, len(records))
		for _, r := range records {
			rec := dto.OutputRecordDTO{PairedItem: r.PairedItem, JSON: r.JSON}
			if len(r.Binary) > 0 {
				rec.Binary = make(map[string]dto.BinaryDTO, len(r.Binary))
				for field, att := range r.Binary {
					if att != nil {
						rec.Binary[field] = AttachmentToDTO(att)
					}
				}
			}
			out[i] = append(out[i], rec)
		}
	}
	return out
}

func RunToDTO(r *entities.OptimizeRun) dto.RunDTO {
	run := dto.RunDTO{
		ID:          r.ID.String(),
		Status:      r.Status,
		Formats:     r.Formats,
		ItemCount:   r.ItemCount,
		FailedCount: r.FailedCount,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
	}
	for _, o := range r.Outputs {
		run.Outputs = append(run.Outputs, dto.RunOutputDTO{
			PairedItem: o.PairedItem,
			Channel:    o.Channel,
			Format:     o.Format,
			FileName:   o.FileName,
			MimeType:   o.MimeType,
			URL:        BinaryURL(o.StorageKey),
			Width:      o.Width,
			Height:     o.Height,
			Size:       o.Size,
			Error:      o.Error,
		})
	}
	return run
}

func FormatToDTO(s entities.FormatSpec) dto.FormatDTO {
	o := s.Options
	options := map[string]any{}
	if o.Quality != 0 {
		options["quality"] = o.Quality
	}
	if o.CompressionLevel != 0 {
		options["compressionLevel"] = o.CompressionLevel
	}
	if o.Palette {
		options["palette"] = true
	}
	if o.Effort != 0 {
		options["effort"] = o.Effort
	}
	if o.Optimize {
		options["optimize"] = true
	}
	if o.Lossless {
		options["lossless"] = true
	}
	if o.NearLossless {
		options["nearLossless"] = true
	}
	if o.Speed != 0 {
		options["speed"] = o.Speed
	}
	return dto.FormatDTO{
		ID:        string(s.ID),
		MimeType:  s.MimeType,
		Extension: s.Extension,
		Options:   options,
	}
}
