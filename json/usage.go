package json

import "github.com/fwojciec/accrue"

// usageDTO is the wire usage object. Cache fields are nullable per the API
// schema.
type usageDTO struct {
	InputTokens              int  `json:"input_tokens"`
	OutputTokens             int  `json:"output_tokens"`
	CacheCreationInputTokens *int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     *int `json:"cache_read_input_tokens,omitempty"`
}

func marshalUsage(u accrue.Usage) usageDTO {
	dto := usageDTO{InputTokens: u.InputTokens, OutputTokens: u.OutputTokens}
	if u.CacheWriteTokens != 0 {
		dto.CacheCreationInputTokens = &u.CacheWriteTokens
	}
	if u.CacheReadTokens != 0 {
		dto.CacheReadInputTokens = &u.CacheReadTokens
	}
	return dto
}

func unmarshalUsage(dto usageDTO) accrue.Usage {
	u := accrue.Usage{InputTokens: dto.InputTokens, OutputTokens: dto.OutputTokens}
	if dto.CacheCreationInputTokens != nil {
		u.CacheWriteTokens = *dto.CacheCreationInputTokens
	}
	if dto.CacheReadInputTokens != nil {
		u.CacheReadTokens = *dto.CacheReadInputTokens
	}
	return u
}
