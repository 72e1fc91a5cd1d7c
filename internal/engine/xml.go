package engine

import (
	"encoding/xml"
	"io"
	"strings"
)

// Raw OOXML structures for ppt/slides/slideN.xml and related parts. Struct
// tags carry local names only; encoding/xml then matches elements regardless
// of namespace prefix, which is what we want across producers.

type xmlSlideRoot struct {
	Show       *string        `xml:"show,attr"`
	CSld       xmlCSld        `xml:"cSld"`
	Transition *xmlTransition `xml:"transition"`
	Timing     *xmlTiming     `xml:"timing"`
}

type xmlCSld struct {
	Name   string    `xml:"name,attr"`
	Bg     *xmlBg    `xml:"bg"`
	SpTree xmlSpTree `xml:"spTree"`
}

type xmlBg struct {
	BgPr *struct {
		NoFill    *struct{}     `xml:"noFill"`
		SolidFill *xmlSolidFill `xml:"solidFill"`
		GradFill  *xmlGradFill  `xml:"gradFill"`
		PattFill  *xmlPattFill  `xml:"pattFill"`
		BlipFill  *struct{}     `xml:"blipFill"`
	} `xml:"bgPr"`
}

type xmlTransition struct {
	Effect string // local name of the first child element (fade, push, ...)
}

// UnmarshalXML records the local name of the first child element as the
// transition effect.
func (t *xmlTransition) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if t.Effect == "" {
				t.Effect = el.Name.Local
			}
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if el.Name == start.Name {
				return nil
			}
		}
	}
}

// xmlTiming flattens the slide's p:timing part into ordered animation
// entries. Only the effect kind, the triggering node type and the target
// shape id survive; durations, delays and the nested timing graph do not.
type xmlTiming struct {
	Entries []xmlAnimEntry
}

type xmlAnimEntry struct {
	SpID    string
	Effect  string
	Trigger string
}

func (t *xmlTiming) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	trigger := ""
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "cTn":
				// nodeType carries the trigger for the effects below it
				// (clickEffect, withEffect, afterEffect).
				for _, a := range el.Attr {
					if a.Name.Local == "nodeType" && strings.HasSuffix(a.Value, "Effect") {
						trigger = a.Value
					}
				}
			case "animEffect":
				e := xmlAnimEntry{Effect: el.Name.Local, Trigger: trigger}
				for _, a := range el.Attr {
					if a.Name.Local == "filter" && a.Value != "" {
						e.Effect = a.Value
					}
				}
				t.Entries = append(t.Entries, e)
			case "anim", "animMotion", "animRot", "animScale", "set", "cmd":
				t.Entries = append(t.Entries, xmlAnimEntry{Effect: el.Name.Local, Trigger: trigger})
			case "spTgt":
				// Targets appear inside the enclosing effect's cBhvr, after
				// the effect element itself.
				if n := len(t.Entries); n > 0 && t.Entries[n-1].SpID == "" {
					for _, a := range el.Attr {
						if a.Name.Local == "spid" {
							t.Entries[n-1].SpID = a.Value
						}
					}
				}
			}
		case xml.EndElement:
			if el.Name == start.Name {
				return nil
			}
		}
	}
}

// xmlShapeNode is one ordered entry of a shape tree. Exactly one pointer is
// non-nil; Kind names which.
type xmlShapeNode struct {
	Kind         string // "sp", "pic", "grpSp", "graphicFrame", "cxnSp"
	Sp           *xmlSp
	Pic          *xmlPic
	GrpSp        *xmlGrpSp
	GraphicFrame *xmlGraphicFrame
}

// xmlSpTree decodes the shape tree preserving source order, which is the
// z-order contract of the slide.
type xmlSpTree struct {
	Nodes []xmlShapeNode
}

func (t *xmlSpTree) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "sp", "cxnSp":
				var sp xmlSp
				if err := d.DecodeElement(&sp, &el); err != nil {
					return err
				}
				kind := el.Name.Local
				t.Nodes = append(t.Nodes, xmlShapeNode{Kind: kind, Sp: &sp})
			case "pic":
				var pic xmlPic
				if err := d.DecodeElement(&pic, &el); err != nil {
					return err
				}
				t.Nodes = append(t.Nodes, xmlShapeNode{Kind: "pic", Pic: &pic})
			case "grpSp":
				var grp xmlGrpSp
				if err := d.DecodeElement(&grp, &el); err != nil {
					return err
				}
				t.Nodes = append(t.Nodes, xmlShapeNode{Kind: "grpSp", GrpSp: &grp})
			case "graphicFrame":
				var gf xmlGraphicFrame
				if err := d.DecodeElement(&gf, &el); err != nil {
					return err
				}
				t.Nodes = append(t.Nodes, xmlShapeNode{Kind: "graphicFrame", GraphicFrame: &gf})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if el.Name == start.Name {
				return nil
			}
		}
	}
}

// xmlGrpSp shares the ordered-children decoding of xmlSpTree.
type xmlGrpSp struct {
	NvPr  xmlNvPr
	Xfrm  *xmlXfrm
	Nodes []xmlShapeNode
}

func (g *xmlGrpSp) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "nvGrpSpPr":
				var nv struct {
					CNvPr xmlCNvPr `xml:"cNvPr"`
				}
				if err := d.DecodeElement(&nv, &el); err != nil {
					return err
				}
				g.NvPr.CNvPr = nv.CNvPr
			case "grpSpPr":
				var pr struct {
					Xfrm *xmlXfrm `xml:"xfrm"`
				}
				if err := d.DecodeElement(&pr, &el); err != nil {
					return err
				}
				g.Xfrm = pr.Xfrm
			case "sp", "cxnSp":
				var sp xmlSp
				if err := d.DecodeElement(&sp, &el); err != nil {
					return err
				}
				g.Nodes = append(g.Nodes, xmlShapeNode{Kind: el.Name.Local, Sp: &sp})
			case "pic":
				var pic xmlPic
				if err := d.DecodeElement(&pic, &el); err != nil {
					return err
				}
				g.Nodes = append(g.Nodes, xmlShapeNode{Kind: "pic", Pic: &pic})
			case "grpSp":
				var sub xmlGrpSp
				if err := d.DecodeElement(&sub, &el); err != nil {
					return err
				}
				g.Nodes = append(g.Nodes, xmlShapeNode{Kind: "grpSp", GrpSp: &sub})
			case "graphicFrame":
				var gf xmlGraphicFrame
				if err := d.DecodeElement(&gf, &el); err != nil {
					return err
				}
				g.Nodes = append(g.Nodes, xmlShapeNode{Kind: "graphicFrame", GraphicFrame: &gf})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if el.Name == start.Name {
				return nil
			}
		}
	}
}

type xmlNvPr struct {
	CNvPr xmlCNvPr `xml:"cNvPr"`
}

type xmlCNvPr struct {
	ID     string `xml:"id,attr"`
	Name   string `xml:"name,attr"`
	Hidden string `xml:"hidden,attr"`
	Hlink  *struct {
		RID string `xml:"id,attr"`
	} `xml:"hlinkClick"`
}

type xmlSp struct {
	NvSpPr struct {
		CNvPr   xmlCNvPr `xml:"cNvPr"`
		CNvSpPr struct {
			TxBox   string `xml:"txBox,attr"`
			SpLocks *struct {
				NoSelect string `xml:"noSelect,attr"`
				NoMove   string `xml:"noMove,attr"`
				NoResize string `xml:"noResize,attr"`
			} `xml:"spLocks"`
		} `xml:"cNvSpPr"`
	} `xml:"nvSpPr"`
	SpPr   xmlSpPr    `xml:"spPr"`
	TxBody *xmlTxBody `xml:"txBody"`
}

type xmlPic struct {
	NvPicPr struct {
		CNvPr xmlCNvPr `xml:"cNvPr"`
		NvPr  struct {
			VideoFile *struct {
				Link string `xml:"link,attr"`
			} `xml:"videoFile"`
			AudioFile *struct {
				Link string `xml:"link,attr"`
			} `xml:"audioFile"`
		} `xml:"nvPr"`
	} `xml:"nvPicPr"`
	BlipFill *struct {
		Blip *struct {
			Embed string `xml:"embed,attr"`
		} `xml:"blip"`
	} `xml:"blipFill"`
	SpPr xmlSpPr `xml:"spPr"`
}

type xmlGraphicFrame struct {
	NvPr    xmlNvPr  `xml:"nvGraphicFramePr"`
	Xfrm    *xmlXfrm `xml:"xfrm"`
	Graphic struct {
		GraphicData struct {
			URI   string `xml:"uri,attr"`
			Tbl   *xmlTbl `xml:"tbl"`
			Chart *struct {
				RID string `xml:"id,attr"`
			} `xml:"chart"`
			OleObj *struct {
				RID    string `xml:"id,attr"`
				ProgID string `xml:"progId,attr"`
				Name   string `xml:"name,attr"`
			} `xml:"oleObj"`
		} `xml:"graphicData"`
	} `xml:"graphic"`
}

type xmlTbl struct {
	Grid struct {
		Cols []struct{} `xml:"gridCol"`
	} `xml:"tblGrid"`
	Rows []struct{} `xml:"tr"`
}

type xmlSpPr struct {
	Xfrm     *xmlXfrm `xml:"xfrm"`
	PrstGeom *struct {
		Prst string `xml:"prst,attr"`
	} `xml:"prstGeom"`
	NoFill    *struct{}     `xml:"noFill"`
	SolidFill *xmlSolidFill `xml:"solidFill"`
	GradFill  *xmlGradFill  `xml:"gradFill"`
	PattFill  *xmlPattFill  `xml:"pattFill"`
	BlipFill  *struct{}     `xml:"blipFill"`
	Ln        *xmlLn        `xml:"ln"`
}

type xmlXfrm struct {
	Rot   string `xml:"rot,attr"`
	FlipH string `xml:"flipH,attr"`
	FlipV string `xml:"flipV,attr"`
	Off   *struct {
		X string `xml:"x,attr"`
		Y string `xml:"y,attr"`
	} `xml:"off"`
	Ext *struct {
		CX string `xml:"cx,attr"`
		CY string `xml:"cy,attr"`
	} `xml:"ext"`
}

type xmlSolidFill struct {
	SrgbClr *struct {
		Val string `xml:"val,attr"`
	} `xml:"srgbClr"`
	SchemeClr *struct {
		Val string `xml:"val,attr"`
	} `xml:"schemeClr"`
}

type xmlGradFill struct {
	GsLst struct {
		Gs []struct {
			Pos     string `xml:"pos,attr"`
			SrgbClr *struct {
				Val string `xml:"val,attr"`
			} `xml:"srgbClr"`
		} `xml:"gs"`
	} `xml:"gsLst"`
	Lin *struct {
		Ang string `xml:"ang,attr"`
	} `xml:"lin"`
	Path *struct {
		PathType string `xml:"path,attr"`
	} `xml:"path"`
}

type xmlPattFill struct {
	Prst  string `xml:"prst,attr"`
	FgClr *xmlSolidFill `xml:"fgClr"`
	BgClr *xmlSolidFill `xml:"bgClr"`
}

type xmlLn struct {
	W         string        `xml:"w,attr"`
	NoFill    *struct{}     `xml:"noFill"`
	SolidFill *xmlSolidFill `xml:"solidFill"`
	PrstDash  *struct {
		Val string `xml:"val,attr"`
	} `xml:"prstDash"`
}

type xmlTxBody struct {
	Paragraphs []xmlParagraph `xml:"p"`
}

type xmlParagraph struct {
	PPr *struct {
		Algn   string     `xml:"algn,attr"`
		Lvl    string     `xml:"lvl,attr"`
		DefRPr *xmlRunPr  `xml:"defRPr"`
	} `xml:"pPr"`
	Runs []xmlRun `xml:"r"`
	Flds []struct {
		Text string `xml:"t"`
	} `xml:"fld"`
}

type xmlRun struct {
	RPr  *xmlRunPr `xml:"rPr"`
	Text string    `xml:"t"`
}

type xmlRunPr struct {
	B         string        `xml:"b,attr"`
	I         string        `xml:"i,attr"`
	U         string        `xml:"u,attr"`
	Sz        string        `xml:"sz,attr"`
	SolidFill *xmlSolidFill `xml:"solidFill"`
	Latin     *struct {
		Typeface string `xml:"typeface,attr"`
	} `xml:"latin"`
	Hlink *struct {
		RID string `xml:"id,attr"`
	} `xml:"hlinkClick"`
}

// Relationships (*.rels) parts.

type xmlRelationships struct {
	Rels []xmlRelationship `xml:"Relationship"`
}

type xmlRelationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
	Mode   string `xml:"TargetMode,attr"`
}

// ppt/presentation.xml.

type xmlPresentationRoot struct {
	SldMasterIdLst struct {
		Ids []struct {
			RID string `xml:"id,attr"`
		} `xml:"sldMasterId"`
	} `xml:"sldMasterIdLst"`
	SldIdLst struct {
		Ids []struct {
			// RID is listed first so the namespaced r:id attribute binds to it
			// rather than to the un-namespaced slide id.
			RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
			ID  string `xml:"id,attr"`
		} `xml:"sldId"`
	} `xml:"sldIdLst"`
	SldSz *struct {
		CX string `xml:"cx,attr"`
		CY string `xml:"cy,attr"`
	} `xml:"sldSz"`
}

// docProps/core.xml and docProps/app.xml.

type xmlCoreProps struct {
	Title    string `xml:"title"`
	Creator  string `xml:"creator"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
}

type xmlAppProps struct {
	Company string `xml:"Company"`
	Slides  string `xml:"Slides"`
}

// ppt/commentAuthors.xml and ppt/comments/commentN.xml.

type xmlCommentAuthors struct {
	Authors []struct {
		ID   string `xml:"id,attr"`
		Name string `xml:"name,attr"`
	} `xml:"cmAuthor"`
}

type xmlCommentList struct {
	Comments []struct {
		AuthorID string `xml:"authorId,attr"`
		Date     string `xml:"dt,attr"`
		Text     string `xml:"text"`
	} `xml:"cm"`
}
