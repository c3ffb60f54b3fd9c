package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Category is a top-level grouping in the EVDS hierarchy.
type Category struct {
	ID      FlexInt `json:"CATEGORY_ID"`
	TitleTR string  `json:"TOPIC_TITLE_TR"`
	Title   string  `json:"TOPIC_TITLE_ENG"`
}

// Datagroup groups related series under one category.
type Datagroup struct {
	Code            string  `json:"DATAGROUP_CODE"`
	CategoryID      FlexInt `json:"CATEGORY_ID"`
	Name            string  `json:"DATAGROUP_NAME"`
	NameEng         string  `json:"DATAGROUP_NAME_ENG"`
	FrequencyStr    string  `json:"FREQUENCY_STR"`
	Frequency       FlexInt `json:"FREQUENCY"`
	DataSource      string  `json:"DATASOURCE"`
	DataSourceEng   string  `json:"DATASOURCE_ENG"`
	MetadataLink    string  `json:"METADATA_LINK"`
	MetadataLinkEng string  `json:"METADATA_LINK_ENG"`
	StartDate       string  `json:"START_DATE"`
	EndDate         string  `json:"END_DATE"`
}

// Series describes a single time series.
type Series struct {
	Code             string `json:"SERIE_CODE"`
	DatagroupCode    string `json:"DATAGROUP_CODE"`
	Name             string `json:"SERIE_NAME"`
	NameEng          string `json:"SERIE_NAME_ENG"`
	FrequencyStr     string `json:"FREQUENCY_STR"`
	DefaultAggMethod string `json:"DEFAULT_AGG_METHOD"`
	Tag              string `json:"TAG,omitempty"`
	TagEng           string `json:"TAG_ENG,omitempty"`
	DataSource       string `json:"DATASOURCE,omitempty"`
	DataSourceEng    string `json:"DATASOURCE_ENG,omitempty"`
	StartDate        string `json:"START_DATE"`
	EndDate          string `json:"END_DATE"`
}

// FlexInt decodes integers the service sends either as JSON numbers or as
// numeric strings.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	s := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("catalog: invalid integer %s", data)
	}
	*n = FlexInt(f)
	return nil
}
