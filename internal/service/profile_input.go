package service

import (
	"fmt"

	"putevoditel/internal/models"
	"putevoditel/internal/validation"
)

// ProfileInput is the body of a profile update. Each field remembers whether
// it was sent, so PATCH only touches what the client named.
type ProfileInput struct {
	FirstName models.Optional[string] `json:"first_name"`
	LastName  models.Optional[string] `json:"last_name"`
	Telephone models.Optional[string] `json:"telephone"`

	Communication    models.Optional[int] `json:"communication"`
	IdeaGeneration   models.Optional[int] `json:"idea_generation"`
	Organisation     models.Optional[int] `json:"organisation"`
	Creativity       models.Optional[int] `json:"creativity"`
	ResourceSearch   models.Optional[int] `json:"resource_search"`
	Achievement      models.Optional[int] `json:"achievement"`
	CriticalThinking models.Optional[int] `json:"critical_thinking"`
	Leadership       models.Optional[int] `json:"leadership"`

	WantToFindOut models.Optional[string] `json:"want_to_find_out"`
	WantToLearn   models.Optional[string] `json:"want_to_learn"`
	WantToGet     models.Optional[string] `json:"want_to_get"`

	Introvert     models.Optional[bool] `json:"introvert"`
	Individualist models.Optional[bool] `json:"individualist"`
	Optimist      models.Optional[bool] `json:"optimist"`
	Serious       models.Optional[bool] `json:"serious"`
	Organized     models.Optional[bool] `json:"organized"`
	Leader        models.Optional[bool] `json:"leader"`

	WhoAmIExtra1 models.Optional[string] `json:"who_am_i_extra_1"`
	WhoAmIExtra2 models.Optional[string] `json:"who_am_i_extra_2"`
	WhoAmIExtra3 models.Optional[string] `json:"who_am_i_extra_3"`
	WhoAmIExtra4 models.Optional[string] `json:"who_am_i_extra_4"`
	WhoAmIExtra5 models.Optional[string] `json:"who_am_i_extra_5"`

	WhatIWant1  models.Optional[string] `json:"what_i_want_1"`
	WhatIWant2  models.Optional[string] `json:"what_i_want_2"`
	WhatIWant3  models.Optional[string] `json:"what_i_want_3"`
	WhatIWant4  models.Optional[string] `json:"what_i_want_4"`
	WhatIWant5  models.Optional[string] `json:"what_i_want_5"`
	WhatIWant6  models.Optional[string] `json:"what_i_want_6"`
	WhatIWant7  models.Optional[string] `json:"what_i_want_7"`
	WhatIWant8  models.Optional[string] `json:"what_i_want_8"`
	WhatIWant9  models.Optional[string] `json:"what_i_want_9"`
	WhatIWant10 models.Optional[string] `json:"what_i_want_10"`
}

type scoreField struct {
	name  string
	value models.Optional[int]
}

func (in *ProfileInput) scores() []scoreField {
	return []scoreField{
		{"communication", in.Communication},
		{"idea_generation", in.IdeaGeneration},
		{"organisation", in.Organisation},
		{"creativity", in.Creativity},
		{"resource_search", in.ResourceSearch},
		{"achievement", in.Achievement},
		{"critical_thinking", in.CriticalThinking},
		{"leadership", in.Leadership},
	}
}

func (in *ProfileInput) whoAmI() []models.Optional[string] {
	return []models.Optional[string]{in.WhoAmIExtra1, in.WhoAmIExtra2, in.WhoAmIExtra3, in.WhoAmIExtra4, in.WhoAmIExtra5}
}

func (in *ProfileInput) whatIWant() []models.Optional[string] {
	return []models.Optional[string]{
		in.WhatIWant1, in.WhatIWant2, in.WhatIWant3, in.WhatIWant4, in.WhatIWant5,
		in.WhatIWant6, in.WhatIWant7, in.WhatIWant8, in.WhatIWant9, in.WhatIWant10,
	}
}

// Validate checks every field that was sent.
func (in *ProfileInput) Validate() error {
	for _, f := range []struct {
		name  string
		value models.Optional[string]
	}{{"first_name", in.FirstName}, {"last_name", in.LastName}} {
		if f.value.Set {
			if err := validation.ValidateRequired(f.name, f.value.Value, maxNameLen); err != nil {
				return err
			}
		}
	}
	if in.Telephone.Set {
		if err := validation.ValidateTelephone(in.Telephone.Value); err != nil {
			return err
		}
	}
	for _, f := range in.scores() {
		if !f.value.Set || f.value.Null {
			continue
		}
		v := f.value.Value
		if err := validation.ValidateScore(f.name, &v); err != nil {
			return err
		}
	}
	for i, v := range in.whoAmI() {
		if err := validation.ValidateLength(fmt.Sprintf("who_am_i_extra_%d", i+1), v.Value, maxWhoAmILen); err != nil {
			return err
		}
	}
	for i, v := range in.whatIWant() {
		if err := validation.ValidateLength(fmt.Sprintf("what_i_want_%d", i+1), v.Value, maxWhatIWantLen); err != nil {
			return err
		}
	}
	return nil
}

// Apply copies the sent fields onto user and returns the names of the
// changed struct fields. A null clears the field.
func (in *ProfileInput) Apply(user *models.User) []string {
	var cols []string
	set(&cols, "FirstName", in.FirstName, &user.FirstName)
	set(&cols, "LastName", in.LastName, &user.LastName)
	set(&cols, "Telephone", in.Telephone, &user.Telephone)

	p := &user.Profile
	setScore(&cols, "Communication", in.Communication, &p.Communication)
	setScore(&cols, "IdeaGeneration", in.IdeaGeneration, &p.IdeaGeneration)
	setScore(&cols, "Organisation", in.Organisation, &p.Organisation)
	setScore(&cols, "Creativity", in.Creativity, &p.Creativity)
	setScore(&cols, "ResourceSearch", in.ResourceSearch, &p.ResourceSearch)
	setScore(&cols, "Achievement", in.Achievement, &p.Achievement)
	setScore(&cols, "CriticalThinking", in.CriticalThinking, &p.CriticalThinking)
	setScore(&cols, "Leadership", in.Leadership, &p.Leadership)

	set(&cols, "WantToFindOut", in.WantToFindOut, &p.WantToFindOut)
	set(&cols, "WantToLearn", in.WantToLearn, &p.WantToLearn)
	set(&cols, "WantToGet", in.WantToGet, &p.WantToGet)

	set(&cols, "Introvert", in.Introvert, &p.Introvert)
	set(&cols, "Individualist", in.Individualist, &p.Individualist)
	set(&cols, "Optimist", in.Optimist, &p.Optimist)
	set(&cols, "Serious", in.Serious, &p.Serious)
	set(&cols, "Organized", in.Organized, &p.Organized)
	set(&cols, "Leader", in.Leader, &p.Leader)

	whoAmI := []*string{&p.WhoAmIExtra1, &p.WhoAmIExtra2, &p.WhoAmIExtra3, &p.WhoAmIExtra4, &p.WhoAmIExtra5}
	for i, v := range in.whoAmI() {
		set(&cols, fmt.Sprintf("WhoAmIExtra%d", i+1), v, whoAmI[i])
	}
	whatIWant := []*string{
		&p.WhatIWant1, &p.WhatIWant2, &p.WhatIWant3, &p.WhatIWant4, &p.WhatIWant5,
		&p.WhatIWant6, &p.WhatIWant7, &p.WhatIWant8, &p.WhatIWant9, &p.WhatIWant10,
	}
	for i, v := range in.whatIWant() {
		set(&cols, fmt.Sprintf("WhatIWant%d", i+1), v, whatIWant[i])
	}
	return cols
}

func set[T any](cols *[]string, field string, opt models.Optional[T], dst *T) {
	if !opt.Set {
		return
	}
	*dst = opt.Value
	*cols = append(*cols, field)
}

func setScore(cols *[]string, field string, opt models.Optional[int], dst **int) {
	if !opt.Set {
		return
	}
	if opt.Null {
		*dst = nil
	} else {
		v := opt.Value
		*dst = &v
	}
	*cols = append(*cols, field)
}
