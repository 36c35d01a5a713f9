package normalize

import (
	"fmt"
	"regexp"

	"github.com/hvidsten/skylight/internal/domain"
)

var programBlockRx = regexp.MustCompile(`(?s)<section[^>]*class="[^"]*program[^"]*"[^>]*>(.*?)</section>`)
var headingRx = regexp.MustCompile(`(?s)<h\d[^>]*>(.*?)</h\d>`)
var listItemRx = regexp.MustCompile(`(?s)<li[^>]*>(.*?)</li>`)
var contactRx = regexp.MustCompile(`(?s)class="[^"]*contact[^"]*"[^>]*>(.*?)</`)
var applyRx = regexp.MustCompile(`(?s)class="[^"]*apply[^"]*"[^>]*>(.*?)</`)

func normalizePrograms(payload []byte) ([]domain.HousingProgram, error) {
	blocks := programBlockRx.FindAllSubmatch(payload, -1)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no program entries found")
	}

	programs := make([]domain.HousingProgram, 0, len(blocks))
	for _, block := range blocks {
		heading := headingRx.FindSubmatch(block[1])
		if heading == nil {
			return nil, fmt.Errorf("program without a name")
		}
		name := stripTags(string(heading[1]))
		if name == "" {
			return nil, fmt.Errorf("program without a name")
		}

		program := domain.HousingProgram{Name: name}

		if match := summaryRx.FindSubmatch(block[1]); match != nil {
			program.Description = stripTags(string(match[1]))
		}

		for _, item := range listItemRx.FindAllSubmatch(block[1], -1) {
			if requirement := stripTags(string(item[1])); requirement != "" {
				program.EligibilityRequirements = append(program.EligibilityRequirements, requirement)
			}
		}

		if match := applyRx.FindSubmatch(block[1]); match != nil {
			program.ApplicationProcess = stripTags(string(match[1]))
		}

		if match := contactRx.FindSubmatch(block[1]); match != nil {
			program.ContactInfo = stripTags(string(match[1]))
		}

		if anchor := anchorRx.FindSubmatch(block[1]); anchor != nil {
			program.ProgramURL = absoluteURL(string(anchor[1]))
		}
		if program.ProgramURL == "" {
			return nil, fmt.Errorf("program %q without a url", name)
		}

		programs = append(programs, program)
	}

	return programs, nil
}
