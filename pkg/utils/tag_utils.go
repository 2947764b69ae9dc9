package utils

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// NameTagKey is the tag key every managed resource carries
const NameTagKey = "Name"

// GetTagValue returns the value of a tag with the given key
func GetTagValue(tags []types.Tag, key string) string {
	for _, tag := range tags {
		if tag.Key != nil && *tag.Key == key {
			if tag.Value != nil {
				return *tag.Value
			}
			return ""
		}
	}
	return ""
}

// GetName returns the value of the Name tag
func GetName(tags []types.Tag) string {
	return GetTagValue(tags, NameTagKey)
}

// NameTagFilter returns the describe filter selecting resources tagged Name=value
func NameTagFilter(value string) types.Filter {
	return types.Filter{
		Name:   aws.String("tag:" + NameTagKey),
		Values: []string{value},
	}
}

// NameTagSpecifications tags every given resource type with Name=value
func NameTagSpecifications(value string, resourceTypes ...types.ResourceType) []types.TagSpecification {
	specs := make([]types.TagSpecification, 0, len(resourceTypes))
	for _, rt := range resourceTypes {
		specs = append(specs, types.TagSpecification{
			ResourceType: rt,
			Tags: []types.Tag{
				{Key: aws.String(NameTagKey), Value: aws.String(value)},
			},
		})
	}
	return specs
}
