package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/sensorable/lblgen"
)

var errAborted = errors.New("aborted by user")

// promptOptions asks for the materials, their proportions and the object and image counts,
// using the values in o as defaults.
func promptOptions(o *lblgen.Options) error {
	available := materialDirs(filepath.Join(o.AssetDir, lblgen.ModelsDir))

	var materials []string
	if len(available) > 0 {
		prompt := &survey.MultiSelect{
			Message: "Materials:",
			Options: available,
			Default: intersect(o.Materials, available),
		}
		if err := survey.AskOne(prompt, &materials, survey.WithValidator(survey.MinItems(1))); err != nil {
			return translateSurveyErr(err)
		}
	} else {
		var answer string
		prompt := &survey.Input{
			Message: "Materials (comma-separated):",
			Default: strings.Join(o.Materials, ","),
		}
		if err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.Required)); err != nil {
			return translateSurveyErr(err)
		}
		materials = splitList(answer)
	}

	proportions := make([]int, len(materials))
	remaining := 100
	for i, m := range materials {
		def := remaining
		if i < len(materials)-1 {
			def = remaining / (len(materials) - i)
		}
		var answer string
		prompt := &survey.Input{
			Message: fmt.Sprintf("Percentage of %s objects:", m),
			Default: strconv.Itoa(def),
		}
		if err := survey.AskOne(prompt, &answer, survey.WithValidator(percentage)); err != nil {
			return translateSurveyErr(err)
		}
		proportions[i], _ = strconv.Atoi(answer)
		remaining -= proportions[i]
	}

	counts := []struct {
		message string
		value   *int
	}{
		{"Objects per image:", &o.ObjectsPerImage},
		{"Number of images:", &o.ImageCount},
	}
	for _, c := range counts {
		var answer string
		prompt := &survey.Input{Message: c.message, Default: strconv.Itoa(*c.value)}
		if err := survey.AskOne(prompt, &answer, survey.WithValidator(count)); err != nil {
			return translateSurveyErr(err)
		}
		*c.value, _ = strconv.Atoi(answer)
	}

	o.Materials = materials
	o.Proportions = proportions
	return o.Validate()
}

func percentage(ans interface{}) error {
	i, err := strconv.Atoi(fmt.Sprint(ans))
	if err != nil || i < 0 || i > 100 {
		return fmt.Errorf("enter a percentage in [0, 100]")
	}
	return nil
}

func count(ans interface{}) error {
	i, err := strconv.Atoi(fmt.Sprint(ans))
	if err != nil || i < 0 {
		return fmt.Errorf("enter a non-negative number")
	}
	return nil
}

// materialDirs lists the material directories in dir.
func materialDirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func intersect(values, allowed []string) []string {
	var out []string
	for _, v := range values {
		for _, a := range allowed {
			if v == a {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}
