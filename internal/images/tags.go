package images

// ImageTag is a catalog image with its resolved tag
type ImageTag struct {
	Name string
	Tag  string
}

// IterImages resolves the tags of the names matching filter, in list order.
// Tags are computed by the backend from DOCKER_IMAGE_<NAME>.
func (e *Engine) IterImages(filter string, names []string) ([]ImageTag, error) {
	var result []ImageTag
	for _, name := range names {
		if !matches(filter, name) {
			continue
		}
		tag, err := e.backend.GetTag(e.cfg, name)
		if err != nil {
			return nil, &TagRenderError{Image: name, Err: err}
		}
		result = append(result, ImageTag{Name: name, Tag: tag})
	}
	return result, nil
}

func tagsOf(images []ImageTag) []string {
	tags := make([]string, 0, len(images))
	for _, img := range images {
		tags = append(tags, img.Tag)
	}
	return tags
}
